package services

import (
	"context"
	"errors"
	"log"
	"regexp"

	"github.com/soundlog/soundlog/src/internal/domain"
	"github.com/soundlog/soundlog/src/internal/ports"
)

var ErrInvalidColor = errors.New("color must be a #RRGGBB hex value")

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Accounts covers the per-user preference and administrative operations the
// command layer calls into: privacy, display color, purge, status.
type Accounts struct {
	users   ports.UserRepository
	history ports.HistoryRepository
}

// AccountStatus is what status-style commands render.
type AccountStatus struct {
	Connected  bool
	HasHistory bool
	IsPublic   bool
	EmbedColor string
}

func NewAccounts(users ports.UserRepository, history ports.HistoryRepository) *Accounts {
	return &Accounts{users: users, history: history}
}

func (a *Accounts) SetPrivacy(ctx context.Context, userID string, isPublic bool) error {
	if err := a.users.EnsureExists(ctx, userID); err != nil {
		return err
	}
	return a.users.SetPrivacy(ctx, userID, isPublic)
}

func (a *Accounts) IsPublic(ctx context.Context, userID string) (bool, error) {
	return a.users.IsPublic(ctx, userID)
}

func (a *Accounts) SetColor(ctx context.Context, userID, color string) error {
	if !hexColorPattern.MatchString(color) {
		return ErrInvalidColor
	}
	if err := a.users.EnsureExists(ctx, userID); err != nil {
		return err
	}
	return a.users.SetColor(ctx, userID, color)
}

// PurgeUser deletes the user's entire history and account row. Admin-only;
// the caller enforces the permission check.
func (a *Accounts) PurgeUser(ctx context.Context, userID string) error {
	if err := a.history.PurgeUser(ctx, userID); err != nil {
		return err
	}
	// No-op where the store already cascaded the user row away.
	if err := a.users.Delete(ctx, userID); err != nil {
		return err
	}
	log.Printf("[Accounts] Purged all data for user %s", userID)
	return nil
}

func (a *Accounts) Status(ctx context.Context, userID string) (*AccountStatus, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &AccountStatus{EmbedColor: domain.DefaultEmbedColor}
	if user != nil {
		status.Connected = user.Connected()
		status.IsPublic = user.IsPublic
		if user.EmbedColor != "" {
			status.EmbedColor = user.EmbedColor
		}
	}

	hasHistory, err := a.history.HasAny(ctx, userID)
	if err != nil {
		return nil, err
	}
	status.HasHistory = hasHistory
	return status, nil
}
