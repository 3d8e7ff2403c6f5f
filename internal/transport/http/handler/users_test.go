package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-chat-api/internal/application/user"
	"github.com/go-chat-api/internal/domain"
)

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserSvc) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserSvc) UploadAvatar(ctx context.Context, userID string, req user.UploadAvatarRequest) (*domain.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestUserGet_HappyPath(t *testing.T) {
	svc := new(mockUserSvc)
	svc.On("Get", mock.Anything, "u2").
		Return(&domain.User{UserID: "u2", Username: "bob"}, nil)
	h := NewUserHandler(svc)

	r := withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/u2", nil), "u2")
	rr := httptest.NewRecorder()
	h.Get(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp UserEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "bob", resp.User.Username)
}

func TestUserGet_UnknownMapsTo404(t *testing.T) {
	svc := new(mockUserSvc)
	svc.On("Get", mock.Anything, "nobody").Return(nil, domain.ErrNotFound)
	h := NewUserHandler(svc)

	r := withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/nobody", nil), "nobody")
	rr := httptest.NewRecorder()
	h.Get(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateMe_MissingUser(t *testing.T) {
	h := NewUserHandler(new(mockUserSvc))
	rr := httptest.NewRecorder()
	h.UpdateMe(rr, httptest.NewRequest(http.MethodPut, "/v1/users/me", bytes.NewBufferString("{}")))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdateMe_HappyPath(t *testing.T) {
	svc := new(mockUserSvc)
	svc.On("UpdateProfile", mock.Anything, "u1", mock.MatchedBy(func(req domain.UpdateProfileRequest) bool {
		return req.Username != nil && *req.Username == "alice2"
	})).Return(&domain.User{UserID: "u1", Username: "alice2"}, nil)
	h := NewUserHandler(svc)

	body, _ := json.Marshal(map[string]string{"username": "alice2"})
	r := httptest.NewRequest(http.MethodPut, "/v1/users/me", bytes.NewReader(body))
	rr := serveAs(t, "u1", h.UpdateMe, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp UserEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "alice2", resp.User.Username)
	svc.AssertExpectations(t)
}

func TestUpdateMe_EmptyBodyMapsTo400(t *testing.T) {
	svc := new(mockUserSvc)
	svc.On("UpdateProfile", mock.Anything, "u1", domain.UpdateProfileRequest{}).
		Return(nil, domain.ErrBadRequest)
	h := NewUserHandler(svc)

	r := httptest.NewRequest(http.MethodPut, "/v1/users/me", bytes.NewBufferString("{}"))
	rr := serveAs(t, "u1", h.UpdateMe, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadAvatar_HappyPath(t *testing.T) {
	svc := new(mockUserSvc)
	svc.On("UploadAvatar", mock.Anything, "u1", user.UploadAvatarRequest{FileName: "me.png", Data: "aGVsbG8="}).
		Return(&domain.User{UserID: "u1", AvatarURL: "http://cdn/a.png"}, nil)
	h := NewUserHandler(svc)

	body, _ := json.Marshal(map[string]string{"file_name": "me.png", "data": "aGVsbG8="})
	r := httptest.NewRequest(http.MethodPost, "/v1/users/me/avatar", bytes.NewReader(body))
	rr := serveAs(t, "u1", h.UploadAvatar, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp UserEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "http://cdn/a.png", resp.User.AvatarURL)
	svc.AssertExpectations(t)
}

func TestUploadAvatar_MissingFields(t *testing.T) {
	svc := new(mockUserSvc)
	h := NewUserHandler(svc)
	body, _ := json.Marshal(map[string]string{"file_name": "me.png"})
	r := httptest.NewRequest(http.MethodPost, "/v1/users/me/avatar", bytes.NewReader(body))
	rr := serveAs(t, "u1", h.UploadAvatar, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "UploadAvatar", mock.Anything, mock.Anything, mock.Anything)
}
