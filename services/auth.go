package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"metahire/metrics"
	"metahire/models"
	"metahire/session"
	"metahire/store"
)

// Auth registers users and turns credentials into sessions.
type Auth struct {
	store    store.Store
	sessions *session.Manager
	hasher   PasswordHasher
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

func NewAuth(st store.Store, sessions *session.Manager, hasher PasswordHasher, m *metrics.Metrics, log logrus.FieldLogger) *Auth {
	return &Auth{store: st, sessions: sessions, hasher: hasher, metrics: m, log: log}
}

// Register creates a staff profile. Superadmins are only created through
// EnsureSuperadmin.
func (a *Auth) Register(ctx context.Context, in NewAccount) (*models.Profile, error) {
	return createAccount(ctx, a.store, a.hasher, in, models.RoleStaff)
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token   string           `json:"token"`
	Session *session.Session `json:"session"`
	Profile *models.Profile  `json:"profile"`
}

func (a *Auth) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	invalid := Unauthorized("invalid email or password")

	profiles, err := a.store.Profiles().FindWhere(ctx, store.Where("email", email).Take(1))
	if err != nil {
		return nil, fromStore("profile", err)
	}
	if len(profiles) == 0 {
		a.metrics.RecordLogin(false)
		return nil, invalid
	}
	profile := &profiles[0]

	account, err := a.store.Accounts().FindByID(ctx, profile.ID)
	if errors.Is(err, store.ErrNotFound) {
		a.metrics.RecordLogin(false)
		return nil, invalid
	}
	if err != nil {
		return nil, fromStore("account", err)
	}
	if !a.hasher.Matches(account.PasswordHash, password) {
		a.metrics.RecordLogin(false)
		a.log.WithField("profile_id", profile.ID).Warn("failed login attempt")
		return nil, invalid
	}

	token, sess, err := a.sessions.Create(ctx, profile)
	if err != nil {
		return nil, Storage("failed to create session", err)
	}
	a.metrics.RecordLogin(true)
	return &LoginResult{Token: token, Session: sess, Profile: profile}, nil
}

func (a *Auth) Logout(ctx context.Context, sessionID string) error {
	if err := a.sessions.Destroy(ctx, sessionID); err != nil {
		return Storage("failed to end session", err)
	}
	return nil
}

// Authenticate resolves a token to its session and the current profile. The
// role comes from the stored profile, not from the session.
func (a *Auth) Authenticate(ctx context.Context, token string) (*models.Profile, *session.Session, error) {
	sess, err := a.sessions.Resolve(ctx, token)
	switch {
	case errors.Is(err, session.ErrInvalidToken):
		return nil, nil, Unauthorized("invalid or expired token")
	case errors.Is(err, session.ErrNotFound):
		return nil, nil, Unauthorized("session has ended")
	case err != nil:
		return nil, nil, Storage("failed to load session", err)
	}

	profile, err := a.store.Profiles().FindByID(ctx, sess.ProfileID)
	if errors.Is(err, store.ErrNotFound) {
		_ = a.sessions.Destroy(ctx, sess.ID)
		return nil, nil, Unauthorized("profile no longer exists")
	}
	if err != nil {
		return nil, nil, fromStore("profile", err)
	}
	return profile, sess, nil
}

// EnsureSuperadmin makes sure a superadmin with the given email exists,
// creating it or promoting an existing profile.
func (a *Auth) EnsureSuperadmin(ctx context.Context, in NewAccount) (*models.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := a.store.Profiles().FindWhere(ctx, store.Where("email", email).Take(1))
	if err != nil {
		return nil, fromStore("profile", err)
	}
	if len(existing) == 0 {
		profile, err := createAccount(ctx, a.store, a.hasher, in, models.RoleSuperadmin)
		if err != nil {
			return nil, err
		}
		a.log.WithField("profile_id", profile.ID).Info("superadmin created")
		return profile, nil
	}

	profile := &existing[0]
	if profile.Role != models.RoleSuperadmin {
		profile.Role = models.RoleSuperadmin
		if err := a.store.Profiles().Update(ctx, profile); err != nil {
			return nil, fromStore("profile", err)
		}
		a.log.WithField("profile_id", profile.ID).Info("profile promoted to superadmin")
	}
	return profile, nil
}
