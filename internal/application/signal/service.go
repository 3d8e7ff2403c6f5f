package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chat-api/internal/domain"
	"github.com/go-chat-api/internal/pkg/id"
)

// signalTTL bounds how long an undelivered signal stays claimable. Stale
// offers are useless to a callee that polls hours later.
const signalTTL = 24 * time.Hour

type SignalStore interface {
	Put(ctx context.Context, sig *domain.CallSignal) error
	ListUnread(ctx context.Context, toUserID string) ([]domain.CallSignal, error)
	MarkRead(ctx context.Context, toUserID, signalID string) error
}

type SendSignalRequest struct {
	TargetUserID string `json:"target_user_id" validate:"required"`
	SignalType   string `json:"signal_type" validate:"required"`
	SignalData   string `json:"signal_data" validate:"required"`
}

type Service interface {
	SendSignal(ctx context.Context, fromUserID string, req SendSignalRequest) (*domain.CallSignal, error)
	PollSignals(ctx context.Context, userID string) ([]domain.CallSignal, error)
}

type ServiceDeps struct {
	SignalRepo SignalStore
}

type service struct {
	signalRepo SignalStore
}

func NewService(deps ServiceDeps) Service {
	return &service{signalRepo: deps.SignalRepo}
}

func (s *service) SendSignal(ctx context.Context, fromUserID string, req SendSignalRequest) (*domain.CallSignal, error) {
	if !domain.ValidSignalType(req.SignalType) {
		return nil, fmt.Errorf("unknown signal type %q: %w", req.SignalType, domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	sig := &domain.CallSignal{
		ToUserID:   req.TargetUserID,
		SignalID:   id.New(),
		FromUserID: fromUserID,
		SignalType: req.SignalType,
		SignalData: req.SignalData,
		ExpiresAt:  now.Add(signalTTL).Unix(),
		CreatedAt:  now,
	}
	if err := s.signalRepo.Put(ctx, sig); err != nil {
		return nil, err
	}
	return sig, nil
}

// PollSignals drains the caller's pending signals in arrival order. Each
// signal is claimed with a conditional mark before it is handed out, so a
// signal returned here will never be returned again, even to a concurrent
// poller. An empty result is a normal outcome.
func (s *service) PollSignals(ctx context.Context, userID string) ([]domain.CallSignal, error) {
	pending, err := s.signalRepo.ListUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	claimed := make([]domain.CallSignal, 0, len(pending))
	for _, sig := range pending {
		if err := s.signalRepo.MarkRead(ctx, userID, sig.SignalID); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// Another poll already delivered this one.
				continue
			}
			slog.Warn("claim signal", "signal_id", sig.SignalID, "err", err)
			continue
		}
		sig.IsRead = true
		claimed = append(claimed, sig)
	}
	return claimed, nil
}
