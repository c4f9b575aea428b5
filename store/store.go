package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
)

// Persisted key names. Shared backends namespace these with their own prefix.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserData     = "user_data"
)

// ErrInvalidTokenFormat is returned when a caller attempts to persist an empty
// or malformed token. Nothing is written in that case.
var ErrInvalidTokenFormat = errors.New("invalid token format")

// ErrInvalidUserData is returned when a user profile fails identity validation.
var ErrInvalidUserData = errors.New("invalid user data")

// TokenPair carries an access/refresh token pair. Both members are validated
// non-empty before persistence; a pair is written whole or not at all.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserProfile is the persisted dashboard user identity.
type UserProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	Approved bool   `json:"is_approved,omitempty"`
}

func validProfile(p *UserProfile) bool {
	return p != nil && p.ID > 0 && p.Username != "" && p.Role != ""
}

// Store is the validated credential layer over a [Backend]. All auth-related
// writes in the application must funnel through it so the validation
// invariants hold for every reader.
type Store struct {
	backend Backend
}

// New creates a credential [Store] over the given backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Item returns the raw stored string for key. The second return is false when
// the key is absent, the backend is unavailable, or the read fails; backend
// failures are logged with the key name only.
func (s *Store) Item(ctx context.Context, key string) (string, bool) {
	value, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			log.Print("mcsession: storage read failed for key " + key)
		}
		return "", false
	}
	return value, true
}

// SetItem persists value under key. Returns false when the backend is
// unavailable or the write fails; nothing is persisted in that case.
func (s *Store) SetItem(ctx context.Context, key, value string) bool {
	if err := s.backend.Set(ctx, key, value); err != nil {
		log.Print("mcsession: storage write failed for key " + key)
		return false
	}
	return true
}

// Remove deletes key. Returns false only when the backend reports a failure.
func (s *Store) Remove(ctx context.Context, key string) bool {
	if err := s.backend.Delete(ctx, key); err != nil {
		log.Print("mcsession: storage delete failed for key " + key)
		return false
	}
	return true
}

// Available probes the backend by writing and removing a throwaway key.
// It reports false if either operation fails (storage disabled, read-only
// media, unreachable server).
func (s *Store) Available(ctx context.Context) bool {
	probe := "probe:" + uuid.NewString()
	if err := s.backend.Set(ctx, probe, "1"); err != nil {
		return false
	}
	if err := s.backend.Delete(ctx, probe); err != nil {
		return false
	}
	return true
}

// AccessToken returns the persisted access token, or false when absent.
// An empty stored value is treated as corrupt: it is deleted and absence
// is reported.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	return s.tokenItem(ctx, KeyAccessToken)
}

// RefreshToken returns the persisted refresh token, or false when absent.
func (s *Store) RefreshToken(ctx context.Context) (string, bool) {
	return s.tokenItem(ctx, KeyRefreshToken)
}

func (s *Store) tokenItem(ctx context.Context, key string) (string, bool) {
	value, ok := s.Item(ctx, key)
	if !ok {
		return "", false
	}
	if strings.TrimSpace(value) == "" {
		s.Remove(ctx, key)
		return "", false
	}
	return value, true
}

// SetTokenPair validates and persists both tokens. The operation is
// atomic-in-intent: if either half is empty the whole operation is rejected
// with [ErrInvalidTokenFormat] and neither key is written.
func (s *Store) SetTokenPair(ctx context.Context, pair TokenPair) error {
	if strings.TrimSpace(pair.AccessToken) == "" || strings.TrimSpace(pair.RefreshToken) == "" {
		log.Print("mcsession: rejected token pair with empty member")
		return ErrInvalidTokenFormat
	}
	if err := s.backend.Set(ctx, KeyAccessToken, pair.AccessToken); err != nil {
		return wrapUnavailable(err)
	}
	if err := s.backend.Set(ctx, KeyRefreshToken, pair.RefreshToken); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// UserProfile returns the persisted profile, or false when absent. Entries
// that fail JSON parsing or identity validation are deleted on read.
func (s *Store) UserProfile(ctx context.Context) (*UserProfile, bool) {
	var profile UserProfile
	ok := s.getJSON(ctx, KeyUserData, &profile, func() bool {
		return validProfile(&profile)
	})
	if !ok {
		return nil, false
	}
	return &profile, true
}

// SetUserProfile validates and persists the profile.
func (s *Store) SetUserProfile(ctx context.Context, profile *UserProfile) error {
	if !validProfile(profile) {
		return ErrInvalidUserData
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return ErrInvalidUserData
	}
	if err := s.backend.Set(ctx, KeyUserData, string(data)); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// ClearAuthData removes every auth key unconditionally. It reports success
// only when all removals succeed.
func (s *Store) ClearAuthData(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUserData} {
		if err := s.backend.Delete(ctx, key); err != nil {
			log.Print("mcsession: storage delete failed for key " + key)
			errs = append(errs, wrapUnavailable(err))
		}
	}
	return errors.Join(errs...)
}

// getJSON reads key, unmarshals into out, and applies the validator.
// Parse failures and validator rejections delete the key (self-healing)
// and report absence.
func (s *Store) getJSON(ctx context.Context, key string, out any, valid func() bool) bool {
	raw, ok := s.Item(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Print("mcsession: discarding unparseable entry for key " + key)
		s.Remove(ctx, key)
		return false
	}
	if valid != nil && !valid() {
		log.Print("mcsession: discarding invalid entry for key " + key)
		s.Remove(ctx, key)
		return false
	}
	return true
}

func wrapUnavailable(err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return errors.Join(ErrStorageUnavailable, err)
}
