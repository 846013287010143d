package services

import (
	"context"
	"errors"
	"testing"

	"github.com/soundlog/soundlog/src/internal/adapters/memory"
	"github.com/soundlog/soundlog/src/internal/domain"
)

func TestSetColorValidation(t *testing.T) {
	accounts := NewAccounts(memory.NewUserRepo(), memory.NewHistoryRepo())
	ctx := context.Background()

	for _, bad := range []string{"", "1DB954", "#1DB95", "#1DB9544", "#1DB95G", "red"} {
		if err := accounts.SetColor(ctx, "u1", bad); !errors.Is(err, ErrInvalidColor) {
			t.Fatalf("SetColor(%q): expected ErrInvalidColor, got %v", bad, err)
		}
	}

	if err := accounts.SetColor(ctx, "u1", "#AbCdEf"); err != nil {
		t.Fatalf("expected mixed-case hex accepted, got %v", err)
	}
}

func TestSetColorPersists(t *testing.T) {
	users := memory.NewUserRepo()
	accounts := NewAccounts(users, memory.NewHistoryRepo())
	ctx := context.Background()

	// The user row is created on demand.
	if err := accounts.SetColor(ctx, "u1", "#ff0000"); err != nil {
		t.Fatalf("set color: %v", err)
	}

	status, err := accounts.Status(ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.EmbedColor != "#ff0000" {
		t.Fatalf("expected stored color, got %q", status.EmbedColor)
	}
}

func TestPrivacyDefaultsAndToggle(t *testing.T) {
	users := memory.NewUserRepo()
	accounts := NewAccounts(users, memory.NewHistoryRepo())
	ctx := context.Background()

	// Unknown users are private.
	public, err := accounts.IsPublic(ctx, "u1")
	if err != nil {
		t.Fatalf("is public: %v", err)
	}
	if public {
		t.Fatal("expected unknown user to be private")
	}

	if err := accounts.SetPrivacy(ctx, "u1", true); err != nil {
		t.Fatalf("set privacy: %v", err)
	}
	public, err = accounts.IsPublic(ctx, "u1")
	if err != nil {
		t.Fatalf("is public: %v", err)
	}
	if !public {
		t.Fatal("expected user to be public after opt-in")
	}
}

func TestStatusDefaultsForUnknownUser(t *testing.T) {
	accounts := NewAccounts(memory.NewUserRepo(), memory.NewHistoryRepo())

	status, err := accounts.Status(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Connected || status.HasHistory || status.IsPublic {
		t.Fatalf("expected zeroed status, got %+v", status)
	}
	if status.EmbedColor != domain.DefaultEmbedColor {
		t.Fatalf("expected default color, got %q", status.EmbedColor)
	}
}

func TestPurgeUserRemovesEverything(t *testing.T) {
	users := memory.NewUserRepo()
	history := memory.NewHistoryRepo()
	accounts := NewAccounts(users, history)
	ctx := context.Background()

	connectUser(t, users, "u1")
	events := []domain.PlayEvent{
		{TS: 1700000000, MsPlayed: 200000, TrackName: "A", ArtistName: "X", TrackURI: "uri:a"},
	}
	if _, err := history.AppendEvents(ctx, "u1", events, domain.SourceUpload); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := accounts.PurgeUser(ctx, "u1"); err != nil {
		t.Fatalf("purge: %v", err)
	}

	status, err := accounts.Status(ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Connected || status.HasHistory {
		t.Fatalf("expected blank account after purge, got %+v", status)
	}

	user, err := users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user != nil {
		t.Fatalf("expected user row removed, got %+v", user)
	}
}
