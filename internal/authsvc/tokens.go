// Package authsvc implements the bearer-token lifecycle of spec.md
// §4.7 and the RBAC resolution of spec.md §4.8: issuing, verifying,
// and revoking opaque tokens against either a dedicated user resource
// or an inline config-supplied user list.
package authsvc

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/alexberriman/pretendo-sub001/internal/resultx"
	"github.com/alexberriman/pretendo-sub001/internal/special"
)

// Subject identifies the authenticated principal carried by a token.
type Subject struct {
	ID       interface{} `json:"id,omitempty"`
	Username string      `json:"username"`
	Role     string      `json:"role,omitempty"`
}

type tokenEntry struct {
	subject   Subject
	expiresAt time.Time
}

// UserSource looks up credentials, abstracting over a dedicated user
// resource versus the config's inline user list.
type UserSource interface {
	// FindUser returns the matching record's id, role, and stored
	// password hash, or ok=false if no user has that username.
	FindUser(username string) (id interface{}, role string, passwordHash string, ok bool)
}

// ResourceUserSource backs authentication with a configured resource
// collection, per spec.md §4.7 "if a dedicated user resource is
// configured, look up by the configured username field".
type ResourceUserSource struct {
	Records       func() []query.Record
	UsernameField string
	PasswordField string
	RoleField     string
	PrimaryKey    string
}

// FindUser implements UserSource.
func (r ResourceUserSource) FindUser(username string) (interface{}, string, string, bool) {
	for _, rec := range r.Records() {
		if name, ok := rec[r.UsernameField].(string); ok && name == username {
			hash, _ := rec[r.PasswordField].(string)
			role, _ := rec[r.RoleField].(string)
			return rec[r.PrimaryKey], role, hash, true
		}
	}
	return nil, "", "", false
}

// InlineUserSource backs authentication with the config's inline
// "auth.users" list.
type InlineUserSource struct {
	Users []config.AuthUser
}

// FindUser implements UserSource.
func (r InlineUserSource) FindUser(username string) (interface{}, string, string, bool) {
	for _, u := range r.Users {
		if u.Username == username {
			return u.ID, u.Role, u.Password, true
		}
	}
	return nil, "", "", false
}

// Service is the opaque-token auth service. One Service instance is
// shared across every request.
type Service struct {
	mu     sync.Mutex
	tokens map[string]tokenEntry

	source UserSource
	ttl    time.Duration
}

// New returns a token service backed by source, issuing tokens with
// the given TTL.
func New(source UserSource, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{tokens: map[string]tokenEntry{}, source: source, ttl: ttl}
}

// LoginResult is what a successful authenticate call returns to the
// route handler.
type LoginResult struct {
	Token     string
	Subject   Subject
	ExpiresAt time.Time
}

// Authenticate checks username/password against the configured source
// and, on success, issues and stores a fresh token. The stored
// credential is always a SHA-256 hash (a resource-backed password
// field is hashed by the special-field pass on create; an inline
// auth.users entry is expected to supply the hash directly), so
// authentication hashes the supplied password and compares digests.
func (s *Service) Authenticate(username, password string) resultx.Result[LoginResult] {
	id, role, hash, ok := s.source.FindUser(username)
	if !ok || hash == "" || special.HashString(password) != hash {
		return resultx.Errf[LoginResult](resultx.KindAuthUnauthorized, "invalid username or password")
	}

	token, err := generateToken()
	if err != nil {
		return resultx.Errf[LoginResult](resultx.KindServerInternal, "cannot generate token: %v", err)
	}

	subject := Subject{ID: id, Username: username, Role: role}
	expiresAt := time.Now().Add(s.ttl)

	s.mu.Lock()
	s.tokens[token] = tokenEntry{subject: subject, expiresAt: expiresAt}
	s.mu.Unlock()

	return resultx.Ok(LoginResult{Token: token, Subject: subject, ExpiresAt: expiresAt})
}

// Verify returns the subject behind token. A token past its expiry is
// removed and treated as absent (spec.md §3 invariant 6).
func (s *Service) Verify(token string) (Subject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tokens[token]
	if !ok {
		return Subject{}, false
	}
	if !entry.expiresAt.After(time.Now()) {
		delete(s.tokens, token)
		return Subject{}, false
	}
	return entry.subject, true
}

// Revoke removes token from the table unconditionally.
func (s *Service) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// ExtractToken pulls the bearer token out of a raw header value of the
// form "Bearer <token>", trimming surrounding whitespace.
func ExtractToken(headerValue string) (string, bool) {
	headerValue = strings.TrimSpace(headerValue)
	const prefix = "Bearer "
	if !strings.HasPrefix(headerValue, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
