package handlers

import (
	"time"

	"github.com/kunalverma25/users-api/internal/domain/entity"
)

// UserView is the outbound representation of a user record. The password
// hash is never mapped out.
type UserView struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobile_number"`
	Avatar       *string   `json:"avatar"`
	DOB          *string   `json:"dob"`
	Gender       string    `json:"gender"`
	IsActive     bool      `json:"is_active"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
}

// NewUserView serializes one record into its public view.
func NewUserView(u *entity.User) UserView {
	v := UserView{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		MobileNumber: u.MobileNumber,
		Gender:       string(u.Gender),
		IsActive:     u.IsActive,
		Created:      u.Created,
		Updated:      u.Updated,
	}
	if u.Avatar != "" {
		a := u.Avatar
		v.Avatar = &a
	}
	if u.DOB != nil {
		d := u.DOB.Format(time.DateOnly)
		v.DOB = &d
	}
	return v
}

func NewUserViews(users []*entity.User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, NewUserView(u))
	}
	return views
}
