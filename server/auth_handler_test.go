package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gojam/config"
	"gojam/core/auth"
	"gojam/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo keeps users in memory.
type fakeUserRepo struct {
	nextID int64
	users  map[int64]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) CreateUser(user *model.User) (int64, error) {
	f.nextID++
	stored := *user
	stored.ID = f.nextID
	f.users[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeUserRepo) GetUserByID(id int64) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByUsername(username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func newAuthTestHandler() (*APIHandler, *fakeUserRepo) {
	auth.Init("test-secret")
	users := newFakeUserRepo()
	return NewAPIHandler(nil, nil, nil, nil, users, &config.Config{}), users
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := newAuthTestHandler()

	rec := postJSON(t, h.RegisterHandler, "/api/auth/register",
		`{"username": "freddie", "email": "freddie@example.com", "password": "bohemian-rhapsody"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "freddie", created.User.Username)
	assert.NotContains(t, rec.Body.String(), "passwordHash", "hash never leaves the server")

	// Login by username.
	rec = postJSON(t, h.LoginHandler, "/api/auth/login",
		`{"username": "freddie", "password": "bohemian-rhapsody"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Login by email.
	rec = postJSON(t, h.LoginHandler, "/api/auth/login",
		`{"username": "freddie@example.com", "password": "bohemian-rhapsody"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Wrong password.
	rec = postJSON(t, h.LoginHandler, "/api/auth/login",
		`{"username": "freddie", "password": "under-pressure"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	h, users := newAuthTestHandler()

	cases := []struct {
		name string
		body string
	}{
		{"missing fields", `{"username": "x"}`},
		{"short password", `{"username": "x", "email": "x@example.com", "password": "short"}`},
		{"all digits", `{"username": "x", "email": "x@example.com", "password": "123456789012"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h.RegisterHandler, "/api/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, users.users)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := newAuthTestHandler()

	body := `{"username": "freddie", "email": "freddie@example.com", "password": "bohemian-rhapsody"}`
	rec := postJSON(t, h.RegisterHandler, "/api/auth/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, h.RegisterHandler, "/api/auth/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	h, _ := newAuthTestHandler()

	var gotUserID int64
	protected := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// No token.
	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	rec := httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Malformed header.
	req = httptest.NewRequest(http.MethodGet, "/api/library", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token.
	token, err := auth.GenerateToken(42, "freddie")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/library", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotUserID)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	h, _ := newAuthTestHandler()

	var sawUser bool
	open := h.OptionalAuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		_, err := GetUserIDFromContext(r.Context())
		sawUser = err == nil
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/recognize", nil)
	rec := httptest.NewRecorder()
	open(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sawUser, "anonymous requests pass through")

	token, err := auth.GenerateToken(7, "brian")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/recognize", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	open(rec, req)
	assert.True(t, sawUser)
}
