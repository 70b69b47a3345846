package hooks

import (
	"fmt"
	"strings"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// stashKey is reserved. Values under it carry state from a before-hook to the
// matching after-hook and are never persisted.
const stashKey = "__hooks"

// Body is a decoded create or update request. Before-hooks may add or rewrite
// fields; the persistence layer applies whatever remains.
type Body map[string]any

// Has reports whether key is present, even with a null value.
func (b Body) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// Set stores v under key.
func (b Body) Set(key string, v any) {
	b[key] = v
}

// String returns the field coerced to a string.
func (b Body) String(key string) (string, bool, error) {
	v, ok := b[key]
	if !ok || v == nil {
		return "", ok, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", true, fieldError(key, err)
	}
	return s, true, nil
}

// Bool returns the field coerced to a bool. "true", 1 and true all qualify.
func (b Body) Bool(key string) (bool, bool, error) {
	v, ok := b[key]
	if !ok || v == nil {
		return false, ok, nil
	}
	out, err := cast.ToBoolE(v)
	if err != nil {
		return false, true, fieldError(key, err)
	}
	return out, true, nil
}

// Truthy reports whether the field is present and coerces to true.
// Malformed values count as false.
func (b Body) Truthy(key string) bool {
	v, _, err := b.Bool(key)
	return err == nil && v
}

// Time returns the field parsed as a time. Dates ("2006-01-02") and RFC 3339
// timestamps are accepted.
func (b Body) Time(key string) (time.Time, bool, error) {
	v, ok := b[key]
	if !ok || v == nil {
		return time.Time{}, ok, nil
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, true, fieldError(key, err)
	}
	return t.UTC(), true, nil
}

// UUID returns the field parsed as a UUID. A nil or empty value yields
// (nil, true, nil) so callers can clear optional references.
func (b Body) UUID(key string) (*uuid.UUID, bool, error) {
	s, ok, err := b.String(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if strings.TrimSpace(s) == "" {
		return nil, true, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, true, fieldError(key, err)
	}
	return &id, true, nil
}

// UUIDs returns the field parsed as a list of UUIDs. A single string is
// accepted as a one-element list.
func (b Body) UUIDs(key string) ([]uuid.UUID, bool, error) {
	v, ok := b[key]
	if !ok || v == nil {
		return nil, ok, nil
	}
	var raw []string
	switch t := v.(type) {
	case []uuid.UUID:
		return append([]uuid.UUID(nil), t...), true, nil
	case string:
		raw = []string{t}
	default:
		s, err := cast.ToStringSliceE(v)
		if err != nil {
			return nil, true, fieldError(key, err)
		}
		raw = s
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, true, fieldError(key, err)
		}
		out = append(out, id)
	}
	return out, true, nil
}

// Stash records a value for the after-hook of the same operation.
func (b Body) Stash(key string, v any) {
	m, _ := b[stashKey].(map[string]any)
	if m == nil {
		m = make(map[string]any)
		b[stashKey] = m
	}
	m[key] = v
}

// Stashed returns a value recorded with Stash.
func (b Body) Stashed(key string) (any, bool) {
	m, _ := b[stashKey].(map[string]any)
	v, ok := m[key]
	return v, ok
}

// Fields returns a copy of the body without reserved keys.
func (b Body) Fields() map[string]any {
	out := make(map[string]any, len(b))
	for k, v := range b {
		if k == stashKey {
			continue
		}
		out[k] = v
	}
	return out
}

func fieldError(key string, err error) error {
	return fmt.Errorf("%w: field %q: %v", domain.ErrValidation, key, err)
}
