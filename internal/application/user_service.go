package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kunalverma25/users-api/internal/domain/entity"
	repo "github.com/kunalverma25/users-api/internal/domain/repository"
	"github.com/kunalverma25/users-api/pkg/helpers"
)

// Lifecycle event names published after successful writes.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

type Service struct {
	Repo         repo.UserRepository
	Logger       *logrus.Logger
	GCS          *storage.Client
	GCSBucket    string
	Events       *helpers.RabbitPublisher
	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewService(r repo.UserRepository, logger *logrus.Logger, gcs *storage.Client, gcsBucket string, events *helpers.RabbitPublisher, es *elasticsearch.Client, esUsersIndex string) *Service {
	return &Service{
		Repo:         r,
		Logger:       logger,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		Events:       events,
		ES:           es,
		ESUsersIndex: esUsersIndex,
	}
}

// CreateUserInput carries the validated fields for a create. Password is the
// plain text; hashing happens here and nowhere else, so a record can never be
// double-hashed.
type CreateUserInput struct {
	Username     string
	FirstName    string
	LastName     string
	Email        string
	MobileNumber string
	Password     string
	Avatar       string
	DOB          *time.Time
	Gender       entity.Gender
	IsActive     *bool
}

func (s *Service) Create(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &entity.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		MobileNumber: in.MobileNumber,
		Password:     hash,
		Avatar:       in.Avatar,
		DOB:          in.DOB,
		Gender:       in.Gender,
		IsActive:     true,
		Created:      now,
		Updated:      now,
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user created")
	s.publishEvent(ctx, EventUserCreated, u)
	s.indexUser(ctx, u)
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset *int) ([]*entity.User, int64, error) {
	return s.Repo.List(ctx, limit, offset)
}

// UpdateUserInput applies only non-nil fields. The handler fills every
// writable field for a full update and only the supplied ones for a partial
// one; Partial is carried for logging parity between the two verbs.
type UpdateUserInput struct {
	Username     *string
	FirstName    *string
	LastName     *string
	Email        *string
	MobileNumber *string
	Password     *string
	Avatar       *string
	DOB          *time.Time
	DOBSet       bool
	Gender       *entity.Gender
	IsActive     *bool
	Partial      bool
}

func (s *Service) Update(ctx context.Context, id string, in UpdateUserInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.MobileNumber != nil {
		u.MobileNumber = *in.MobileNumber
	}
	if in.Avatar != nil {
		u.Avatar = *in.Avatar
	}
	if in.DOBSet {
		u.DOB = in.DOB
	}
	if in.Gender != nil {
		u.Gender = *in.Gender
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.Password != nil {
		hash, err := helpers.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}

	u.Updated = time.Now().UTC()
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "partial": in.Partial}).Info("user updated")
	s.publishEvent(ctx, EventUserUpdated, u)
	s.indexUser(ctx, u)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.Logger.WithField("user_id", id).Info("user destroyed")
	s.publishEvent(ctx, EventUserDeleted, u)
	s.deleteIndexed(ctx, id)
	return nil
}

// UploadAvatar stores the file under user_<id>/<uuid><ext> and saves the
// public URL on the record.
func (s *Service) UploadAvatar(ctx context.Context, id string, r io.Reader, filename, contentType string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, errors.New("object storage not configured")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("user_"+u.ID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}

	u.Avatar = url
	u.Updated = time.Now().UTC()
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, EventUserUpdated, u)
	s.indexUser(ctx, u)
	return u, nil
}

// publishEvent is best-effort: failures are logged, never surfaced.
func (s *Service) publishEvent(ctx context.Context, event string, u *entity.User) {
	if s.Events == nil {
		return
	}
	body := map[string]any{
		"event":       event,
		"user_id":     u.ID,
		"username":    u.Username,
		"occurred_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.Events.PublishJSON(ctx, body); err != nil {
		s.Logger.WithError(err).WithField("event", event).Warn("publish event failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"is_active":  u.IsActive,
		"created":    u.Created.Format(time.RFC3339Nano),
		"updated":    u.Updated.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

func (s *Service) deleteIndexed(ctx context.Context, id string) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESUsersIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		return
	}
	_ = res.Body.Close()
}

// Search performs a simple multi_match over username and names.
func (s *Service) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "first_name", "last_name", "email"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
