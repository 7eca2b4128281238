package models

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// AuthToken is a single credential issued by the backend together with its expiry.
type AuthToken struct {
	Value     string
	ExpiresAt time.Time
	encryptor Encryptor
}

// authTokenJSON is the wire shape of a token: {"token": "...", "expires": <unix millis>}
type authTokenJSON struct {
	Token   string          `json:"token"`
	Expires json.RawMessage `json:"expires,omitempty"`
}

func (a AuthToken) MarshalJSON() ([]byte, error) {
	out := authTokenJSON{Token: a.Value}
	if !a.ExpiresAt.IsZero() {
		out.Expires = json.RawMessage(fmt.Sprintf("%d", a.ExpiresAt.UnixMilli()))
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the expiry either as unix milliseconds or as an RFC 3339 string.
func (a *AuthToken) UnmarshalJSON(data []byte) error {
	var raw authTokenJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Value = raw.Token
	a.ExpiresAt = time.Time{}
	if len(raw.Expires) == 0 || string(raw.Expires) == "null" {
		return nil
	}
	var millis int64
	if err := json.Unmarshal(raw.Expires, &millis); err == nil {
		a.ExpiresAt = time.UnixMilli(millis).UTC()
		return nil
	}
	var text string
	if err := json.Unmarshal(raw.Expires, &text); err != nil {
		return fmt.Errorf("cannot parse token expiry %s: %w", string(raw.Expires), err)
	}
	parsed, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return fmt.Errorf("cannot parse token expiry %q: %w", text, err)
	}
	a.ExpiresAt = parsed.UTC()
	return nil
}

// SetEncryptor adds encryption capabilities to the token
func (a AuthToken) SetEncryptor(enc Encryptor) AuthToken {
	output := a
	output.encryptor = enc
	return output
}

// Encrypt encrypts the value of the token if an encryptor is set
func (a AuthToken) Encrypt() (AuthToken, error) {
	if a.encryptor == nil {
		return a, nil
	}
	encValue, err := a.encryptor.Encrypt(a.Value)
	if err != nil {
		return AuthToken{}, err
	}
	output := a
	output.Value = encValue
	return output, nil
}

// Decrypt decrypts the value of the token if an encryptor is set
func (a AuthToken) Decrypt() (AuthToken, error) {
	if a.encryptor == nil {
		return a, nil
	}
	decValue, err := a.encryptor.Decrypt(a.Value)
	if err != nil {
		return AuthToken{}, err
	}
	output := a
	output.Value = decValue
	return output, nil
}

// Expired reports whether the expiry has passed. Tokens without an expiry never expire.
func (a AuthToken) Expired() bool {
	if a.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().UTC().After(a.ExpiresAt)
}

func (a AuthToken) ExpiresSoon(margin time.Duration) bool {
	if a.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().UTC().Add(margin).After(a.ExpiresAt)
}

// String immplements the Stringer interface for printing the token in logs
func (a AuthToken) String() string {
	return fmt.Sprintf("<Value: redacted, ExpiresAt: %s, Encryption: %v>", a.ExpiresAt, a.encryptor != nil)
}

// LogValue keeps the token value out of structured logs, slog handlers do not call String.
func (a AuthToken) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("value", "redacted"),
		slog.Time("expiresAt", a.ExpiresAt),
		slog.Bool("encryption", a.encryptor != nil),
	)
}

// TokenPair is the access/refresh token pair that makes up an admin session.
type TokenPair struct {
	Access  AuthToken `json:"access"`
	Refresh AuthToken `json:"refresh"`
}

func (t TokenPair) IsZero() bool {
	return t.Access.Value == "" && t.Refresh.Value == ""
}

func (t TokenPair) SetEncryptor(enc Encryptor) TokenPair {
	return TokenPair{Access: t.Access.SetEncryptor(enc), Refresh: t.Refresh.SetEncryptor(enc)}
}

func (t TokenPair) Encrypt() (TokenPair, error) {
	access, err := t.Access.Encrypt()
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := t.Refresh.Encrypt()
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (t TokenPair) Decrypt() (TokenPair, error) {
	access, err := t.Access.Decrypt()
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := t.Refresh.Decrypt()
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (t TokenPair) String() string {
	return fmt.Sprintf("TokenPair<Access: %s, Refresh: %s>", t.Access, t.Refresh)
}

func (t TokenPair) LogValue() slog.Value {
	return slog.GroupValue(slog.Any("access", t.Access), slog.Any("refresh", t.Refresh))
}
