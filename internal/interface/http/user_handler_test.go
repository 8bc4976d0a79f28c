package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/kunalverma25/users-api/internal/application"
	"github.com/kunalverma25/users-api/internal/infrastructure/memory"
	handlers "github.com/kunalverma25/users-api/internal/interface/http"
	"github.com/kunalverma25/users-api/internal/router/modules"
	"github.com/kunalverma25/users-api/pkg/validation"
)

func setup(t *testing.T) (*gin.Engine, *memory.UserRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	repo := memory.NewUserRepository()
	logger := logrus.New()
	svc := application.NewService(repo, logger, nil, "", nil, nil, "")
	h := handlers.NewUserHandler(svc, logger)

	r := gin.New()
	modules.New(h).Register(r.Group("/"))
	return r, repo
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// parseEnvelope asserts both envelope keys are present and returns them.
func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) (data, errs any) {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body, "data")
	require.Contains(t, body, "errors")
	return body["data"], body["errors"]
}

func validPayload(username string) string {
	b, _ := json.Marshal(map[string]any{
		"username":      username,
		"first_name":    "Test",
		"last_name":     "T",
		"email":         "test@mail.com",
		"mobile_number": "1234567890",
		"password":      "test@123",
		"avatar":        nil,
		"dob":           "1993-08-20",
		"gender":        "M",
		"is_active":     false,
	})
	return string(b)
}

func createUser(t *testing.T, r *gin.Engine, username string) map[string]any {
	t.Helper()
	w := do(t, r, http.MethodPost, "/users", validPayload(username))
	require.Equal(t, http.StatusCreated, w.Code)
	data, errs := parseEnvelope(t, w)
	require.Nil(t, errs)
	return data.(map[string]any)
}

func TestCreateUser(t *testing.T) {
	r, repo := setup(t)

	w := do(t, r, http.MethodPost, "/users", validPayload("test"))
	require.Equal(t, http.StatusCreated, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, errs)
	record := data.(map[string]any)
	require.NotEmpty(t, record["id"])
	require.Equal(t, "test", record["username"])
	require.Equal(t, "1993-08-20", record["dob"])
	require.Equal(t, "M", record["gender"])
	require.Equal(t, false, record["is_active"])
	require.NotContains(t, record, "password")
	require.Equal(t, 1, repo.Count())
}

func TestCreateUserWithEmptyData(t *testing.T) {
	r, repo := setup(t)

	w := do(t, r, http.MethodPost, "/users", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	fields := errs.(map[string]any)
	require.Contains(t, fields, "username")
	require.Contains(t, fields, "password")
	require.Equal(t, 0, repo.Count())
}

func TestCreateUserWithEmptyUsername(t *testing.T) {
	r, _ := setup(t)

	payload := strings.Replace(validPayload("test"), `"username":"test"`, `"username":""`, 1)
	w := do(t, r, http.MethodPost, "/users", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	require.Contains(t, errs.(map[string]any), "username")
}

func TestCreateUserWithExistingUsername(t *testing.T) {
	r, repo := setup(t)
	createUser(t, r, "test")

	w := do(t, r, http.MethodPost, "/users", validPayload("test"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	fields := errs.(map[string]any)
	msgs := fields["username"].([]any)
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0], "already exists")
	require.Equal(t, 1, repo.Count())
}

func TestListUsers(t *testing.T) {
	r, _ := setup(t)
	createUser(t, r, "test0")
	createUser(t, r, "test1")

	w := do(t, r, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, errs)
	page := data.(map[string]any)
	require.EqualValues(t, 2, page["count"])
	require.Len(t, page["results"], 2)
	require.Nil(t, page["next"])
	require.Nil(t, page["previous"])
}

func TestListUsersWithPaginationParams(t *testing.T) {
	r, _ := setup(t)
	createUser(t, r, "test0")
	createUser(t, r, "test1")

	w := do(t, r, http.MethodGet, "/users?limit=1&offset=0", "")
	require.Equal(t, http.StatusOK, w.Code)

	data, _ := parseEnvelope(t, w)
	page := data.(map[string]any)
	require.EqualValues(t, 2, page["count"])
	require.Len(t, page["results"], 1)
	require.IsType(t, "", page["next"])
	require.Nil(t, page["previous"])
}

func TestListUsersWithEmptyResults(t *testing.T) {
	r, _ := setup(t)
	createUser(t, r, "test0")
	createUser(t, r, "test1")

	w := do(t, r, http.MethodGet, "/users?limit=1&offset=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	data, _ := parseEnvelope(t, w)
	page := data.(map[string]any)
	require.EqualValues(t, 2, page["count"])
	require.Len(t, page["results"], 0)
	require.Nil(t, page["next"])
	require.IsType(t, "", page["previous"])
}

func TestListUsersWithInvalidParams(t *testing.T) {
	r, _ := setup(t)

	w := do(t, r, http.MethodGet, "/users?limit=abc", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	require.Contains(t, errs.(map[string]any), "limit")
}

func TestRetrieveUser(t *testing.T) {
	r, _ := setup(t)
	created := createUser(t, r, "test")

	w := do(t, r, http.MethodGet, "/users/"+created["id"].(string), "")
	require.Equal(t, http.StatusOK, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, errs)
	record := data.(map[string]any)
	require.Equal(t, created["id"], record["id"])
	require.NotContains(t, record, "password")
}

func TestRetrieveUserIsIdempotent(t *testing.T) {
	r, _ := setup(t)
	created := createUser(t, r, "test")

	w1 := do(t, r, http.MethodGet, "/users/"+created["id"].(string), "")
	w2 := do(t, r, http.MethodGet, "/users/"+created["id"].(string), "")
	require.Equal(t, w1.Body.String(), w2.Body.String())
}

func TestRetrieveUserWithNonExistentID(t *testing.T) {
	r, _ := setup(t)

	w := do(t, r, http.MethodGet, "/users/4c2e1a58-0000-4000-8000-000000000000", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	require.NotNil(t, errs)
}

func TestUpdateUser(t *testing.T) {
	r, _ := setup(t)
	created := createUser(t, r, "test")

	w := do(t, r, http.MethodPut, "/users/"+created["id"].(string), validPayload("test"))
	require.Equal(t, http.StatusOK, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, errs)
	require.Equal(t, created["id"], data.(map[string]any)["id"])
}

func TestUpdateUserResetsOmittedFields(t *testing.T) {
	r, _ := setup(t)
	created := createUser(t, r, "test")

	// full replacement: first_name not supplied, so it resets
	w := do(t, r, http.MethodPut, "/users/"+created["id"].(string), `{"username": "test"}`)
	require.Equal(t, http.StatusOK, w.Code)

	data, _ := parseEnvelope(t, w)
	record := data.(map[string]any)
	require.Equal(t, "", record["first_name"])
	require.Nil(t, record["dob"])
}

func TestUpdateUserWithEmptyData(t *testing.T) {
	r, _ := setup(t)
	created := createUser(t, r, "test")

	w := do(t, r, http.MethodPut, "/users/"+created["id"].(string), `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	require.Contains(t, errs.(map[string]any), "username")
}

func TestUpdateUserWithNonExistentID(t *testing.T) {
	r, _ := setup(t)

	w := do(t, r, http.MethodPut, "/users/4c2e1a58-0000-4000-8000-000000000000", validPayload("test"))
	require.Equal(t, http.StatusNotFound, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	require.NotNil(t, errs)
}

func TestUpdateUserWithExistingUsername(t *testing.T) {
	r, _ := setup(t)
	createUser(t, r, "test")
	other := createUser(t, r, "test2")

	w := do(t, r, http.MethodPut, "/users/"+other["id"].(string), validPayload("test"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	require.Contains(t, errs.(map[string]any), "username")
}

func TestPartialUpdateUser(t *testing.T) {
	r, _ := setup(t)
	created := createUser(t, r, "test")

	w := do(t, r, http.MethodPatch, "/users/"+created["id"].(string), `{"is_active": true}`)
	require.Equal(t, http.StatusOK, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, errs)
	record := data.(map[string]any)
	require.Equal(t, created["id"], record["id"])
	require.Equal(t, true, record["is_active"])
	// omitted fields untouched
	require.Equal(t, "Test", record["first_name"])
}

func TestPartialUpdateUserWithEmptyData(t *testing.T) {
	r, _ := setup(t)
	created := createUser(t, r, "test")

	// no fields are required to change, so an empty patch is a no-op success
	w := do(t, r, http.MethodPatch, "/users/"+created["id"].(string), `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, errs)
	record := data.(map[string]any)
	require.Equal(t, created["id"], record["id"])
	require.Equal(t, "test", record["username"])
}

func TestPartialUpdateUserWithEmptyUsername(t *testing.T) {
	r, _ := setup(t)
	created := createUser(t, r, "test")

	w := do(t, r, http.MethodPatch, "/users/"+created["id"].(string), `{"username": ""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	require.Contains(t, errs.(map[string]any), "username")
}

func TestPartialUpdateUserClearsFieldsOnNull(t *testing.T) {
	r, _ := setup(t)
	created := createUser(t, r, "test")
	require.Equal(t, "1993-08-20", created["dob"])

	w := do(t, r, http.MethodPatch, "/users/"+created["id"].(string), `{"dob": null, "gender": null, "avatar": null}`)
	require.Equal(t, http.StatusOK, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, errs)
	record := data.(map[string]any)
	require.Nil(t, record["dob"])
	require.Equal(t, "", record["gender"])
	require.Nil(t, record["avatar"])
	// unrelated fields untouched
	require.Equal(t, "test", record["username"])
}

func TestPartialUpdateUserWithNonExistentID(t *testing.T) {
	r, repo := setup(t)

	w := do(t, r, http.MethodPatch, "/users/4c2e1a58-0000-4000-8000-000000000000", `{"is_active": true}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 0, repo.Count())
}

func TestDestroyUser(t *testing.T) {
	r, repo := setup(t)
	created := createUser(t, r, "test")
	createUser(t, r, "test2")

	w := do(t, r, http.MethodDelete, "/users/"+created["id"].(string), "")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.Bytes())
	require.Equal(t, 1, repo.Count())
}

func TestDestroyUserWithNonExistentID(t *testing.T) {
	r, _ := setup(t)

	w := do(t, r, http.MethodDelete, "/users/4c2e1a58-0000-4000-8000-000000000000", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	require.NotNil(t, errs)
}

func doMultipart(t *testing.T, r *gin.Engine, path string, withFile bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if withFile {
		fw, err := mw.CreateFormFile("avatar", "avatar.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png bytes"))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file part"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadAvatarWithMissingFile(t *testing.T) {
	r, _ := setup(t)
	created := createUser(t, r, "test")

	w := doMultipart(t, r, "/users/"+created["id"].(string)+"/avatar", false)
	require.Equal(t, http.StatusBadRequest, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	require.Contains(t, errs.(map[string]any), "avatar")
}

func TestUploadAvatarWithNonExistentID(t *testing.T) {
	r, _ := setup(t)

	w := doMultipart(t, r, "/users/4c2e1a58-0000-4000-8000-000000000000/avatar", true)
	require.Equal(t, http.StatusNotFound, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, data)
	require.NotNil(t, errs)
}

func TestSearchWithoutBackendReturnsEmpty(t *testing.T) {
	r, _ := setup(t)

	w := do(t, r, http.MethodGet, "/users/search?q=test", "")
	require.Equal(t, http.StatusOK, w.Code)

	data, errs := parseEnvelope(t, w)
	require.Nil(t, errs)
	require.Len(t, data.(map[string]any)["results"], 0)
}
