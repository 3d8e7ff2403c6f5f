package user

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chat-api/internal/domain"
)

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type AvatarStore interface {
	UploadBase64(ctx context.Context, key, data string) (string, error)
}

type UploadAvatarRequest struct {
	FileName string `json:"file_name" validate:"required"`
	Data     string `json:"data" validate:"required"` // base64-encoded body
}

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	UploadAvatar(ctx context.Context, userID string, req UploadAvatarRequest) (*domain.User, error)
}

type ServiceDeps struct {
	UserRepo UserStore
	Avatars  AvatarStore
}

type service struct {
	userRepo UserStore
	avatars  AvatarStore
}

func NewService(deps ServiceDeps) Service {
	return &service{userRepo: deps.UserRepo, avatars: deps.Avatars}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.Get(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no profile fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.userRepo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.userRepo.Get(ctx, userID)
}

func (s *service) UploadAvatar(ctx context.Context, userID string, req UploadAvatarRequest) (*domain.User, error) {
	if s.avatars == nil {
		return nil, fmt.Errorf("avatar storage not configured: %w", domain.ErrBadRequest)
	}
	key := fmt.Sprintf("avatars/%s/%d-%s", userID, time.Now().UTC().Unix(), req.FileName)
	url, err := s.avatars.UploadBase64(ctx, key, req.Data)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"avatar_url": url}); err != nil {
		return nil, err
	}
	return s.userRepo.Get(ctx, userID)
}
