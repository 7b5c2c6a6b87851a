package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
)

var (
	stateSalt = []byte("shule.core.user.oauth_state")

	// errors
	ErrInvalidState = errors.New("invalid oauth state")
	ErrStateExpired = errors.New("oauth state expired")
	ErrStateBrowser = errors.New("oauth state was issued to another browser")

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// StateSigner makes and verifies the OAuth `state` parameter.
// A state carries the role requested by the caller, the time it was issued and a nonce,
// signed so that the callback can trust them. The nonce is also kept by the browser that
// started the login, and the callback only accepts a state presented with its nonce.
type StateSigner struct {
	secret  []byte
	timeout time.Duration
}

func NewStateSigner(secret string, timeout time.Duration) *StateSigner {
	key := sha256.Sum256(append(append([]byte{}, stateSalt...), secret...))
	return &StateSigner{secret: key[:], timeout: timeout}
}

// Make returns a signed state: <base32 timestamp>.<role>.<nonce>.<signature>, and its nonce.
func (s *StateSigner) Make(role Role) (state, nonce string) {
	nonce = strings.ReplaceAll(uuid.NewString(), "-", "")
	return s.makeWithTimestamp(role, core.Now().Unix(), nonce), nonce
}

// Verify checks the state against the nonce held by the browser and returns the role it carries.
func (s *StateSigner) Verify(state, nonce string) (Role, error) {
	parts := strings.Split(state, ".")
	if len(parts) != 4 {
		return "", ErrInvalidState
	}

	data, err := b32.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidState
	}
	ts, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return "", ErrInvalidState
	}
	role, ok := ParseRole(parts[1])
	if !ok || !role.IsPerson() {
		return "", ErrInvalidState
	}

	// check that state has not been tampered with
	if subtle.ConstantTimeCompare([]byte(s.makeWithTimestamp(role, ts, parts[2])), []byte(state)) == 0 {
		return "", ErrInvalidState
	}

	if nonce == "" || subtle.ConstantTimeCompare([]byte(parts[2]), []byte(nonce)) == 0 {
		return "", ErrStateBrowser
	}

	// check that the timestamp is within limit
	if core.Now().Sub(time.Unix(ts, 0)) > s.timeout {
		return "", ErrStateExpired
	}
	return role, nil
}

func (s *StateSigner) makeWithTimestamp(role Role, ts int64, nonce string) string {
	tsB32 := b32.EncodeToString([]byte(strconv.FormatInt(ts, 10)))
	payload := tsB32 + "." + string(role) + "." + nonce
	return payload + "." + s.sign(payload)
}

func (s *StateSigner) sign(val string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(val))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
