package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	userapp "github.com/kunalverma25/users-api/internal/application"
	"github.com/kunalverma25/users-api/internal/domain/entity"
	"github.com/kunalverma25/users-api/internal/domain/repository"
	"github.com/kunalverma25/users-api/pkg/pagination"
	"github.com/kunalverma25/users-api/pkg/response"
	"github.com/kunalverma25/users-api/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Username     string  `json:"username" binding:"required,max=150,username"`
	FirstName    string  `json:"first_name" binding:"omitempty,max=30"`
	LastName     string  `json:"last_name" binding:"omitempty,max=150"`
	Email        string  `json:"email" binding:"omitempty,email"`
	MobileNumber string  `json:"mobile_number" binding:"omitempty,max=20"`
	Password     string  `json:"password" binding:"required,pwd"`
	Avatar       *string `json:"avatar" binding:"omitempty,url"`
	DOB          *string `json:"dob" binding:"omitempty,dateonly"`
	Gender       string  `json:"gender" binding:"omitempty,gender"`
	IsActive     *bool   `json:"is_active"`
}

// updateUserRequest is the full-replacement payload: username must always be
// supplied, password only when changing it.
type updateUserRequest struct {
	Username     string  `json:"username" binding:"required,max=150,username"`
	FirstName    string  `json:"first_name" binding:"omitempty,max=30"`
	LastName     string  `json:"last_name" binding:"omitempty,max=150"`
	Email        string  `json:"email" binding:"omitempty,email"`
	MobileNumber string  `json:"mobile_number" binding:"omitempty,max=20"`
	Password     *string `json:"password" binding:"omitempty,pwd"`
	Avatar       *string `json:"avatar" binding:"omitempty,url"`
	DOB          *string `json:"dob" binding:"omitempty,dateonly"`
	Gender       string  `json:"gender" binding:"omitempty,gender"`
	IsActive     *bool   `json:"is_active"`
}

// patchUserRequest applies only supplied fields; every field is optional but
// still validated when present.
type patchUserRequest struct {
	Username     *string `json:"username" binding:"omitempty,min=1,max=150,username"`
	FirstName    *string `json:"first_name" binding:"omitempty,max=30"`
	LastName     *string `json:"last_name" binding:"omitempty,max=150"`
	Email        *string `json:"email" binding:"omitempty,email"`
	MobileNumber *string `json:"mobile_number" binding:"omitempty,max=20"`
	Password     *string `json:"password" binding:"omitempty,pwd"`
	Avatar       *string `json:"avatar" binding:"omitempty,url"`
	DOB          *string `json:"dob" binding:"omitempty,dateonly"`
	Gender       *string `json:"gender" binding:"omitempty,gender"`
	IsActive     *bool   `json:"is_active"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Failure(c, http.StatusBadRequest, validation.ToFieldErrors(err))
		return
	}

	dob, ok := parseDOB(c, req.DOB)
	if !ok {
		return
	}
	in := userapp.CreateUserInput{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Password:     req.Password,
		DOB:          dob,
		Gender:       entity.Gender(req.Gender),
		IsActive:     req.IsActive,
	}
	if req.Avatar != nil {
		in.Avatar = *req.Avatar
	}

	u, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, NewUserView(u))
}

func (h *UserHandler) List(c *gin.Context) {
	params, bad := pagination.ParseParams(c.Query("limit"), c.Query("offset"))
	if bad != nil {
		errs := response.FieldErrors{}
		for field, msg := range bad {
			errs.Add(field, msg)
		}
		response.Failure(c, http.StatusBadRequest, errs)
		return
	}

	var offset *int
	if params.Offset > 0 {
		offset = &params.Offset
	}
	users, count, err := h.Svc.List(c.Request.Context(), params.Limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	page := pagination.BuildPage(requestURL(c), NewUserViews(users), count, params)
	response.Success(c, http.StatusOK, page)
}

func (h *UserHandler) Retrieve(c *gin.Context) {
	u, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(u))
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Failure(c, http.StatusBadRequest, validation.ToFieldErrors(err))
		return
	}

	dob, ok := parseDOB(c, req.DOB)
	if !ok {
		return
	}
	// Full replacement: every writable field is applied, omitted optional
	// strings reset to empty.
	gender := entity.Gender(req.Gender)
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	avatar := ""
	if req.Avatar != nil {
		avatar = *req.Avatar
	}
	in := userapp.UpdateUserInput{
		Username:     &req.Username,
		FirstName:    &req.FirstName,
		LastName:     &req.LastName,
		Email:        &req.Email,
		MobileNumber: &req.MobileNumber,
		Password:     req.Password,
		Avatar:       &avatar,
		DOB:          dob,
		DOBSet:       true,
		Gender:       &gender,
		IsActive:     &active,
	}

	u, err := h.Svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(u))
}

func (h *UserHandler) PartialUpdate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Failure(c, http.StatusBadRequest, gin.H{"detail": "could not read request body"})
		return
	}
	var req patchUserRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		response.Failure(c, http.StatusBadRequest, validation.ToFieldErrors(err))
		return
	}
	// Decoding a JSON null into a pointer leaves it nil, exactly like an
	// omitted key. Keep the raw keys so an explicit null can clear the
	// nullable fields instead of being ignored.
	var raw map[string]json.RawMessage
	_ = json.Unmarshal(body, &raw)

	dob, ok := parseDOB(c, req.DOB)
	if !ok {
		return
	}
	in := userapp.UpdateUserInput{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Password:     req.Password,
		Avatar:       req.Avatar,
		Partial:      true,
	}
	if req.DOB != nil {
		in.DOB = dob
		in.DOBSet = true
	} else if nullKey(raw, "dob") {
		in.DOBSet = true
	}
	if req.Gender != nil {
		g := entity.Gender(*req.Gender)
		in.Gender = &g
	} else if nullKey(raw, "gender") {
		g := entity.GenderUnset
		in.Gender = &g
	}
	if req.Avatar == nil && nullKey(raw, "avatar") {
		empty := ""
		in.Avatar = &empty
	}
	in.IsActive = req.IsActive

	u, err := h.Svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(u))
}

func (h *UserHandler) Destroy(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		response.Failure(c, http.StatusBadRequest, response.FieldErrors{"avatar": {"this field is required"}})
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Failure(c, http.StatusBadRequest, response.FieldErrors{"avatar": {"could not read uploaded file"}})
		return
	}
	defer func() { _ = f.Close() }()

	u, err := h.Svc.UploadAvatar(c.Request.Context(), c.Param("id"), f, file.Filename, file.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(u))
}

func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Svc.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": hits})
}

// writeError maps store failures onto the envelope. Uniqueness conflicts are
// reported as a validation failure against the username field.
func (h *UserHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, repository.ErrNotFound.Error())
	case errors.Is(err, repository.ErrUsernameTaken):
		response.Failure(c, http.StatusBadRequest, response.FieldErrors{"username": {repository.ErrUsernameTaken.Error()}})
	default:
		h.Logger.WithError(err).Error("user operation failed")
		response.Failure(c, http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

// parseDOB converts an already format-validated dob string; a false return
// means the failure envelope has been written.
func parseDOB(c *gin.Context, dob *string) (*time.Time, bool) {
	if dob == nil {
		return nil, true
	}
	t, err := time.Parse(time.DateOnly, *dob)
	if err != nil {
		response.Failure(c, http.StatusBadRequest, response.FieldErrors{"dob": {"must be a date in YYYY-MM-DD format"}})
		return nil, false
	}
	return &t, true
}

// nullKey reports whether the patch body carried the key as an explicit
// JSON null.
func nullKey(raw map[string]json.RawMessage, key string) bool {
	v, ok := raw[key]
	return ok && string(bytes.TrimSpace(v)) == "null"
}

// requestURL rebuilds the absolute request URL for pagination cursors.
func requestURL(c *gin.Context) *url.URL {
	u := *c.Request.URL
	if u.Host == "" {
		u.Host = c.Request.Host
	}
	if u.Scheme == "" {
		u.Scheme = "http"
		if c.Request.TLS != nil {
			u.Scheme = "https"
		}
	}
	return &u
}
