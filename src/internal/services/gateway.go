package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/soundlog/soundlog/src/internal/adapters/memory"
	"github.com/soundlog/soundlog/src/internal/adapters/spotify"
	"github.com/soundlog/soundlog/src/internal/config"
	"github.com/soundlog/soundlog/src/internal/domain"
	"github.com/soundlog/soundlog/src/internal/ports"
)

// Refresh proactively this long before stored expiry rather than reacting
// to a 401.
const tokenRefreshMargin = 5 * time.Minute

const tokenEndpointTimeout = 10 * time.Second

const authStateTTL = 10 * time.Minute

var ErrInvalidState = errors.New("unknown or expired authorization state")

// ClientFactory builds an authorized catalog client for an access token.
// Injected so nothing holds a global API handle.
type ClientFactory func(accessToken string) ports.CatalogClient

// Gateway wraps catalog access with transparent credential refresh. It
// persists refreshed credentials, clears them on a permanent auth failure,
// and reports transient failures without mutating anything.
type Gateway struct {
	users      ports.UserRepository
	oauth      *oauth2.Config
	newClient  ClientFactory
	states     *memory.StateStore
	httpClient *http.Client
	now        func() time.Time
}

func NewGateway(users ports.UserRepository, cfg config.CatalogConfig, newClient ClientFactory) *Gateway {
	return &Gateway{
		users: users,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     spotify.OAuthEndpoint,
			Scopes:       spotify.OAuthScopes,
		},
		newClient: newClient,
		states:    memory.NewStateStore(authStateTTL),
		// The oauth2 package falls back to http.DefaultClient, which has no
		// timeout; a stalled token endpoint must not hang the poll loop.
		httpClient: &http.Client{Timeout: tokenEndpointTimeout},
		now:        time.Now,
	}
}

// tokenContext routes the oauth2 package's token requests through the
// gateway's bounded client.
func (g *Gateway) tokenContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
}

// AuthorizedClient returns a catalog client carrying live credentials for
// the user. Refreshes proactively inside the safety margin; after that, one
// probe call guards against clock skew, and a 401 on the probe buys exactly
// one forced refresh-and-retry. Never refreshes more than once per request.
func (g *Gateway) AuthorizedClient(ctx context.Context, userID string) (ports.CatalogClient, error) {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Connected() {
		return nil, domain.ErrNotConnected
	}

	refreshed := false
	if user.TokenExpiresAt <= g.now().Add(tokenRefreshMargin).Unix() {
		if err := g.refresh(ctx, user); err != nil {
			return nil, err
		}
		refreshed = true
	}

	client := g.newClient(user.AccessToken)

	if _, err := client.GetProfile(ctx); err != nil {
		if !spotify.IsAuthError(err) || refreshed {
			return nil, fmt.Errorf("%w: probe failed: %v", domain.ErrCatalogUnavailable, err)
		}
		// Stored expiry lied to us; force the one allowed refresh.
		log.Printf("[Gateway] Probe got auth error for user %s despite unexpired token, forcing refresh", userID)
		if err := g.refresh(ctx, user); err != nil {
			return nil, err
		}
		client = g.newClient(user.AccessToken)
		if _, err := client.GetProfile(ctx); err != nil {
			return nil, fmt.Errorf("%w: probe failed after refresh: %v", domain.ErrCatalogUnavailable, err)
		}
	}

	return client, nil
}

// refresh exchanges the stored refresh token for a new access token and
// persists the result. Mutates user in place on success.
func (g *Gateway) refresh(ctx context.Context, user *domain.User) error {
	src := g.oauth.TokenSource(g.tokenContext(ctx), &oauth2.Token{RefreshToken: user.RefreshToken})
	token, err := src.Token()
	if err != nil {
		if isPermanentAuthFailure(err) {
			log.Printf("[Gateway] Refresh grant rejected for user %s, clearing credentials", user.ID)
			if clearErr := g.users.ClearTokens(ctx, user.ID); clearErr != nil {
				return clearErr
			}
			return domain.ErrNotConnected
		}
		return fmt.Errorf("%w: token refresh: %v", domain.ErrCatalogUnavailable, err)
	}

	// The provider does not always issue a new refresh token; the repo keeps
	// the prior one when handed an empty value.
	newRefresh := token.RefreshToken
	if newRefresh == user.RefreshToken {
		newRefresh = ""
	}
	expiresAt := token.Expiry.Unix()
	if err := g.users.UpdateTokens(ctx, user.ID, token.AccessToken, newRefresh, expiresAt); err != nil {
		return err
	}

	user.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.RefreshToken = token.RefreshToken
	}
	user.TokenExpiresAt = expiresAt
	return nil
}

// isPermanentAuthFailure identifies a revoked or invalid refresh grant, as
// opposed to a transient network/server problem.
func isPermanentAuthFailure(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return false
	}
	if retrieveErr.ErrorCode == "invalid_grant" {
		return true
	}
	if retrieveErr.Response != nil {
		code := retrieveErr.Response.StatusCode
		return code == 400 || code == 401
	}
	return false
}

// AuthCodeURL starts the connect flow: a single-use state nonce bound to the
// user, and the provider URL to send them to. The HTTP callback surface
// lives outside this package and calls CompleteAuthorization.
func (g *Gateway) AuthCodeURL(userID string) (authURL, state string) {
	state = uuid.NewString()
	g.states.Put(state, userID)
	return g.oauth.AuthCodeURL(state), state
}

// CompleteAuthorization consumes the state nonce, exchanges the code, looks
// up the catalog profile and links the account. Idempotent per user.
func (g *Gateway) CompleteAuthorization(ctx context.Context, code, state string) (string, error) {
	userID, ok := g.states.Take(state)
	if !ok {
		return "", ErrInvalidState
	}

	token, err := g.oauth.Exchange(g.tokenContext(ctx), code)
	if err != nil {
		return "", fmt.Errorf("%w: code exchange: %v", domain.ErrCatalogUnavailable, err)
	}

	profile, err := g.newClient(token.AccessToken).GetProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: profile lookup: %v", domain.ErrCatalogUnavailable, err)
	}

	err = g.users.LinkCatalogAccount(ctx, userID, profile.ID, token.AccessToken, token.RefreshToken, token.Expiry.Unix())
	if err != nil {
		return "", err
	}
	log.Printf("[Gateway] Linked catalog account %s for user %s", profile.ID, userID)
	return userID, nil
}
