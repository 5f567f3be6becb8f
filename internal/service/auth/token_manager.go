package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"labelshop/internal/domain"
	tokenrepo "labelshop/internal/repository/token"
)

// refreshManager issues opaque refresh tokens persisted through the token repository.
type refreshManager struct {
	repo tokenrepo.Repository
	now  func() time.Time
}

func newRefreshManager(repo tokenrepo.Repository, now func() time.Time) *refreshManager {
	return &refreshManager{repo: repo, now: now}
}

func (m *refreshManager) Issue(ctx context.Context, userID string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := m.now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", time.Time{}, err
		}
		err = m.repo.Create(ctx, tokenrepo.Token{
			Token:     token,
			UserID:    userID,
			Kind:      tokenrepo.KindRefresh,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, expiresAt, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", time.Time{}, err
	}
	return "", time.Time{}, errors.New("token collision")
}

// Consume validates a refresh token and deletes it so it cannot be replayed. Unknown,
// expired or already consumed tokens are ErrInvalidToken; repository failures pass through.
func (m *refreshManager) Consume(ctx context.Context, token string) (string, error) {
	meta, err := m.repo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	if err := m.repo.Delete(ctx, token); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// lost a race with a concurrent refresh or logout
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("consume refresh token: %w", err)
	}
	if meta.Kind != tokenrepo.KindRefresh || m.now().After(meta.ExpiresAt) {
		return "", ErrInvalidToken
	}
	return meta.UserID, nil
}

func (m *refreshManager) Revoke(ctx context.Context, token string) error {
	err := m.repo.Delete(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
