package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Scheme names the organization identity scheme used for a run.
type Scheme string

const (
	// SchemeLegacy identifies organizations by a numeric external id embedded
	// in every submitted transaction.
	SchemeLegacy Scheme = "legacy"
	// SchemeToken identifies organizations by an opaque bearer token sent as
	// the submission credential.
	SchemeToken Scheme = "token"
)

// ParseScheme converts a configuration value to a Scheme.
func ParseScheme(value string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(value))) {
	case SchemeLegacy, "ext_id":
		return SchemeLegacy, nil
	case SchemeToken, "bearer":
		return SchemeToken, nil
	default:
		return "", fmt.Errorf("unknown identity scheme %q (must be 'legacy' or 'token')", value)
	}
}

// Identity is the organization identity a folder resolves to. Exactly one of
// ExtID (legacy) or Token (token) is meaningful, selected by Scheme.
type Identity struct {
	Scheme Scheme
	ExtID  *int64
	Token  string
	Name   string

	// raw keeps entries that could not be interpreted so they survive a
	// rewrite of the mapping file untouched.
	raw json.RawMessage
}

// NewLegacyIdentity returns a resolved numeric identity.
func NewLegacyIdentity(extID int64) Identity {
	return Identity{Scheme: SchemeLegacy, ExtID: &extID}
}

// NewTokenIdentity returns a resolved bearer-token identity.
func NewTokenIdentity(token, name string) Identity {
	return Identity{Scheme: SchemeToken, Token: token, Name: name}
}

// PlaceholderIdentity returns the empty entry written for a newly seen folder.
func PlaceholderIdentity(scheme Scheme, folder string) Identity {
	if scheme == SchemeToken {
		return Identity{Scheme: SchemeToken, Name: folder}
	}
	return Identity{Scheme: SchemeLegacy}
}

// IsEmpty reports whether the identity is a placeholder the operator still has to fill in.
func (i Identity) IsEmpty() bool {
	if i.raw != nil {
		return true
	}
	switch i.Scheme {
	case SchemeLegacy:
		return i.ExtID == nil
	case SchemeToken:
		return strings.TrimSpace(i.Token) == ""
	default:
		return true
	}
}

// Matches reports whether the identity has the shape the scheme expects.
func (i Identity) Matches(scheme Scheme) bool {
	return !i.IsEmpty() && i.Scheme == scheme
}

// String renders the identity for logs without leaking the token.
func (i Identity) String() string {
	if i.IsEmpty() {
		return "<unresolved>"
	}
	if i.Scheme == SchemeLegacy {
		return "ext_id=" + strconv.FormatInt(*i.ExtID, 10)
	}
	return fmt.Sprintf("token=%s (%s)", Redact(i.Token), i.Name)
}

// Redact masks all but the last four characters of a secret.
func Redact(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

type legacyEntry struct {
	ExtID *int64 `json:"ext_id"`
}

type tokenEntry struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// MarshalJSON writes the entry in the layout of its scheme.
func (i Identity) MarshalJSON() ([]byte, error) {
	if i.raw != nil {
		return i.raw, nil
	}
	if i.Scheme == SchemeToken {
		return json.Marshal(tokenEntry{Token: i.Token, Name: i.Name})
	}
	return json.Marshal(legacyEntry{ExtID: i.ExtID})
}

// UnmarshalJSON accepts a bare integer, {"ext_id": int|string|null} or
// {"token": "...", "name": "..."}. Anything else is kept verbatim and
// treated as unresolved.
func (i *Identity) UnmarshalJSON(data []byte) error {
	*i = Identity{}
	trimmed := bytes.TrimSpace(data)

	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err == nil {
		if id, err := number.Int64(); err == nil {
			*i = NewLegacyIdentity(id)
			return nil
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		i.keepRaw(trimmed)
		return nil
	}

	if rawToken, ok := fields["token"]; ok {
		var entry tokenEntry
		if err := json.Unmarshal(trimmed, &entry); err != nil && !isNull(rawToken) {
			i.keepRaw(trimmed)
			return nil
		}
		*i = NewTokenIdentity(entry.Token, entry.Name)
		return nil
	}

	rawExtID, ok := fields["ext_id"]
	if !ok || isNull(rawExtID) {
		i.Scheme = SchemeLegacy
		return nil
	}
	id, ok := parseExtID(rawExtID)
	if !ok {
		i.keepRaw(trimmed)
		return nil
	}
	*i = NewLegacyIdentity(id)
	return nil
}

func (i *Identity) keepRaw(data []byte) {
	i.Scheme = ""
	i.raw = append(json.RawMessage(nil), data...)
}

func parseExtID(raw json.RawMessage) (int64, bool) {
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		id, err := number.Int64()
		return id, err == nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		return id, err == nil
	}
	return 0, false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
