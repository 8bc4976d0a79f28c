package entity

import (
	"time"
)

// Gender is stored as a one-letter code; empty means unset.
type Gender string

const (
	GenderUnset       Gender = ""
	GenderMale        Gender = "M"
	GenderFemale      Gender = "F"
	GenderTransgender Gender = "T"
	GenderOthers      Gender = "O"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderUnset, GenderMale, GenderFemale, GenderTransgender, GenderOthers:
		return true
	}
	return false
}

// User is the aggregate root for the users domain.
// Password holds a bcrypt hash and must never be serialized outward.
type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	Email        string
	MobileNumber string
	Password     string
	Avatar       string
	DOB          *time.Time
	Gender       Gender
	IsActive     bool
	Created      time.Time
	Updated      time.Time
}
