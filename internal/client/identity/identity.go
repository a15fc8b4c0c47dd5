// Package identity resolves who is acting on this device: the signed-in user
// (from the stored access token) and a stable device id used to tag locally
// generated sync ids.
package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoIdentity = errors.New("identity: no signed-in user")
)

// Provider resolves the current user id, or ErrNoIdentity when nobody is
// signed in.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Static is a fixed-identity Provider, used in tests and offline-only mode
type Static string

func (s Static) CurrentUserID(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoIdentity
	}
	return string(s), nil
}

// TokenFile resolves the user id from a JWT access token stored on disk.
// The token is parsed without verification; the server is the verifier, the
// client only needs the subject claim to attribute local mutations.
type TokenFile struct {
	path string

	mu     sync.Mutex
	cached string
}

func NewTokenFile(path string) *TokenFile {
	return &TokenFile{path: path}
}

func (t *TokenFile) CurrentUserID(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cached != "" {
		return t.cached, nil
	}

	raw, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoIdentity
		}
		return "", fmt.Errorf("read token file: %w", err)
	}

	sub, err := SubjectFromToken(strings.TrimSpace(string(raw)))
	if err != nil {
		return "", err
	}

	t.cached = sub
	return sub, nil
}

// Invalidate drops the cached user id, forcing a re-read on next resolve
func (t *TokenFile) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cached = ""
}

// SubjectFromToken extracts the subject claim from a JWT without verifying
// its signature.
func SubjectFromToken(token string) (string, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrNoIdentity
	}
	return sub, nil
}

// DeviceID returns a stable identifier for this machine, hashed per-app so it
// cannot be correlated across applications. Falls back to hostname when the
// platform has no machine id.
func DeviceID() string {
	id, err := machineid.ProtectedID("wheelway")
	if err != nil {
		host, herr := os.Hostname()
		if herr != nil {
			return "unknown"
		}
		return host
	}
	// 8 hex chars is plenty for diagnostics
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}
