// Package session holds the signed-in customer's token and profile and
// runs the logout side effects that clear per-customer state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/gateway"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror"
	apperrors "github.com/Sahilbhanushali/GharGrocerProd/pkg/errors"
)

// LogoutHook runs after a session ends.
type LogoutHook func(ctx context.Context)

// Provider is the process-wide session.
type Provider struct {
	mu      sync.RWMutex
	token   string
	profile domain.Profile
	hooks   []LogoutHook

	store     mirror.Store
	validator gateway.TokenValidator
	logger    *slog.Logger
}

// New restores the session persisted in store. validator may be nil, in
// which case Validate only checks that a token is present.
func New(ctx context.Context, store mirror.Store, validator gateway.TokenValidator, logger *slog.Logger) (*Provider, error) {
	p := &Provider{store: store, validator: validator, logger: logger}

	token, err := store.Get(ctx, mirror.SlotAuthToken)
	switch {
	case errors.Is(err, mirror.ErrNotFound):
		return p, nil
	case err != nil:
		return nil, fmt.Errorf("restore session token: %w", err)
	}
	p.token = string(token)

	var profile domain.Profile
	if _, err := mirror.LoadJSON(ctx, store, mirror.SlotAuthUser, &profile); err != nil {
		var decodeErr *mirror.DecodeError
		if !errors.As(err, &decodeErr) {
			return nil, fmt.Errorf("restore session profile: %w", err)
		}
		logger.WarnContext(ctx, "discarding unreadable profile", slog.String("error", err.Error()))
	}
	p.profile = profile

	logger.InfoContext(ctx, "session restored", slog.String("user_id", profile.ID()))
	return p, nil
}

// Token returns the current session token, or "" for a guest.
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// IsAuthenticated reports whether a token is present. The token itself is
// never inspected.
func (p *Provider) IsAuthenticated() bool {
	return p.Token() != ""
}

// Profile returns a copy of the customer profile, or nil for a guest.
func (p *Provider) Profile() domain.Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.profile == nil {
		return nil
	}
	return p.profile.Merge(nil)
}

// UserID returns the profile's id, or "".
func (p *Provider) UserID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.profile.ID()
}

// OnLogout registers a hook to run on every Logout, in registration order.
func (p *Provider) OnLogout(hook LogoutHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hook)
}

// Login begins a session. A nil profile clears any stored profile.
// Persistence failures are logged; the in-memory session still starts.
func (p *Provider) Login(ctx context.Context, token string, profile domain.Profile) error {
	if token == "" {
		return apperrors.InvalidInput("token is required")
	}

	p.mu.Lock()
	p.token = token
	p.profile = profile
	p.mu.Unlock()

	if err := p.store.Set(ctx, mirror.SlotAuthToken, []byte(token)); err != nil {
		p.logger.ErrorContext(ctx, "failed to persist session token", slog.String("error", err.Error()))
	}
	if profile != nil {
		p.persistProfile(ctx, profile)
	} else if err := p.store.Delete(ctx, mirror.SlotAuthUser); err != nil {
		p.logger.ErrorContext(ctx, "failed to clear stored profile", slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "session started", slog.String("user_id", profile.ID()))
	return nil
}

// Logout ends the session, deletes the persisted token and profile, then
// runs the logout hooks. It is safe to call as a guest.
func (p *Provider) Logout(ctx context.Context) {
	p.mu.Lock()
	userID := p.profile.ID()
	p.token = ""
	p.profile = nil
	hooks := append([]LogoutHook(nil), p.hooks...)
	p.mu.Unlock()

	for _, slot := range []string{mirror.SlotAuthToken, mirror.SlotAuthUser} {
		if err := p.store.Delete(ctx, slot); err != nil {
			p.logger.ErrorContext(ctx, "failed to clear session slot",
				slog.String("slot", slot),
				slog.String("error", err.Error()),
			)
		}
	}

	for _, hook := range hooks {
		hook(ctx)
	}

	p.logger.InfoContext(ctx, "session ended", slog.String("user_id", userID))
}

// UpdateProfile shallow-merges patch into the profile and persists it.
func (p *Provider) UpdateProfile(ctx context.Context, patch domain.Profile) (domain.Profile, error) {
	p.mu.Lock()
	if p.token == "" {
		p.mu.Unlock()
		return nil, apperrors.Unauthorized("sign in required")
	}
	p.profile = p.profile.Merge(patch)
	updated := p.profile.Merge(nil)
	p.mu.Unlock()

	p.persistProfile(ctx, updated)
	return updated, nil
}

// Validate asks the backend whether the token is still good. A missing or
// rejected token ends the session. A backend that cannot be reached leaves
// the session alone and returns the error.
func (p *Provider) Validate(ctx context.Context) (bool, error) {
	token := p.Token()
	if token == "" {
		p.Logout(ctx)
		return false, nil
	}
	if p.validator == nil {
		return true, nil
	}

	valid, err := p.validator.ValidateToken(ctx, token)
	if err != nil {
		p.logger.WarnContext(ctx, "session validation unavailable", slog.String("error", err.Error()))
		return false, fmt.Errorf("validate session: %w", err)
	}
	if !valid {
		// Only end the session if it has not changed while validating.
		if p.Token() == token {
			p.Logout(ctx)
		}
		return false, nil
	}
	return true, nil
}

func (p *Provider) persistProfile(ctx context.Context, profile domain.Profile) {
	if err := mirror.SaveJSON(ctx, p.store, mirror.SlotAuthUser, profile); err != nil {
		p.logger.ErrorContext(ctx, "failed to persist profile", slog.String("error", err.Error()))
	}
}
