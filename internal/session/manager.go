package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "labconnect.sid"

// Manager issues and resolves sessions. The cookie only carries a signed session id;
// the profile itself stays in the Store.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewManager(store Store, secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
	}
}

// Create starts a new session for profile and sets the session cookie.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, profile Profile) error {
	id := uuid.NewString()
	if err := m.store.Save(ctx, id, profile, m.ttl); err != nil {
		return err
	}

	token, err := m.sign(id)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
	})
	return nil
}

// Current resolves the profile of the request's session (getCurrentUser).
func (m *Manager) Current(r *http.Request) (Profile, error) {
	id, err := m.sessionID(r)
	if err != nil {
		return Profile{}, err
	}
	return m.store.Load(r.Context(), id)
}

// Update replaces the stored profile of the request's session, e.g. after a profile edit.
func (m *Manager) Update(ctx context.Context, r *http.Request, profile Profile) error {
	id, err := m.sessionID(r)
	if err != nil {
		return err
	}
	return m.store.Save(ctx, id, profile, m.ttl)
}

// Destroy deletes the request's session and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	clearCookie(w, m.secure)

	id, err := m.sessionID(r)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}
	return m.store.Delete(ctx, id)
}

// DestroyUser ends every session of userID and clears the request's cookie.
// Used on account deletion so no other device stays signed in.
func (m *Manager) DestroyUser(ctx context.Context, w http.ResponseWriter, userID int) error {
	clearCookie(w, m.secure)
	return m.store.DeleteUser(ctx, userID)
}

// Ping checks the backing store.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Manager) sessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSession
	}
	return m.verify(cookie.Value)
}

func (m *Manager) sign(id string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return token, nil
}

func (m *Manager) verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrNoSession
	}
	return claims.Subject, nil
}

func clearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
