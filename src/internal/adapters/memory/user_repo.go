package memory

import (
	"context"
	"sync"
	"time"

	"github.com/soundlog/soundlog/src/internal/domain"
)

type InMemoryUserRepo struct {
	users map[string]domain.User
	mu    sync.RWMutex
}

func NewUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		users: make(map[string]domain.User),
	}
}

func (r *InMemoryUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *InMemoryUserRepo) EnsureExists(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		r.users[id] = domain.User{
			ID:         id,
			EmbedColor: domain.DefaultEmbedColor,
			CreatedAt:  time.Now(),
			LastSeen:   time.Now(),
		}
	}
	return nil
}

func (r *InMemoryUserRepo) ListConnected(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []domain.User
	for _, u := range r.users {
		if u.Connected() {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *InMemoryUserRepo) LinkCatalogAccount(ctx context.Context, id, catalogID, accessToken, refreshToken string, expiresAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.users[id]
	user.ID = id
	user.CatalogID = catalogID
	user.AccessToken = accessToken
	if refreshToken != "" {
		user.RefreshToken = refreshToken
	}
	user.TokenExpiresAt = expiresAt
	user.LastSeen = time.Now()
	r.users[id] = user
	return nil
}

func (r *InMemoryUserRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil
	}
	user.AccessToken = accessToken
	if refreshToken != "" {
		user.RefreshToken = refreshToken
	}
	user.TokenExpiresAt = expiresAt
	r.users[id] = user
	return nil
}

func (r *InMemoryUserRepo) ClearTokens(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil
	}
	user.AccessToken = ""
	user.RefreshToken = ""
	user.TokenExpiresAt = 0
	r.users[id] = user
	return nil
}

func (r *InMemoryUserRepo) SetColor(ctx context.Context, id, color string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[id]; ok {
		user.EmbedColor = color
		r.users[id] = user
	}
	return nil
}

func (r *InMemoryUserRepo) SetPrivacy(ctx context.Context, id string, isPublic bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[id]; ok {
		user.IsPublic = isPublic
		r.users[id] = user
	}
	return nil
}

func (r *InMemoryUserRepo) IsPublic(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return false, nil
	}
	return user.IsPublic, nil
}

func (r *InMemoryUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, id)
	return nil
}
