package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"metahire/models"
)

// Claims is the token payload. The session id is authoritative; the profile
// id is informational.
type Claims struct {
	SessionID string `json:"session_id"`
	ProfileID string `json:"profile_id"`
	jwt.RegisteredClaims
}

// Manager issues and resolves session tokens.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	return &Manager{store: store, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a session for profile and returns its signed token.
func (m *Manager) Create(ctx context.Context, profile *models.Profile) (string, *Session, error) {
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		ProfileID: profile.ID,
		Email:     profile.Email,
		Role:      profile.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return "", nil, err
	}

	claims := &Claims{
		SessionID: s.ID,
		ProfileID: s.ProfileID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		_ = m.store.Delete(ctx, s.ID)
		return "", nil, err
	}
	return token, s, nil
}

func (m *Manager) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resolve validates token and loads the live session it names.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}
	s, err := m.store.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if s.ProfileID != claims.ProfileID {
		return nil, ErrInvalidToken
	}
	return s, nil
}

// Destroy ends the session with the given id.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}
