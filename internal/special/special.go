// Package special computes the default values driven by the reserved
// tokens a field's defaultValue may hold ($now, $uuid, $userId,
// $increment, $hash), per spec.md §4.3.
package special

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/google/uuid"
)

// Mode is when the processor is being invoked.
type Mode string

// Recognized modes.
const (
	ModeInsert Mode = "insert"
	ModeUpdate Mode = "update"
	ModeAlways Mode = "always"
)

const (
	tokenNow       = "$now"
	tokenUUID      = "$uuid"
	tokenUserID    = "$userId"
	tokenIncrement = "$increment"
	tokenHash      = "$hash"
)

// hexHashPattern matches strings that already look like a hex digest
// 40-128 characters long (sha1 through sha512-ish range), so re-hashing
// an already-hashed value is a no-op (spec.md §4.3 hash pass, and
// invariant exercised by scenario 4 in spec.md §8).
var hexHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{40,128}$`)

// Apply mutates rec in place, filling in every special default that
// applies for mode. userID is the authenticated subject's id, or nil.
// collection is the current collection snapshot, used by $increment.
func Apply(rec map[string]interface{}, fields []config.Field, collection []query.Record, primaryKey string, userID interface{}, mode Mode) {
	for _, f := range fields {
		token, isSpecial := f.DefaultValue.(string)
		if !isSpecial || !strings.HasPrefix(token, "$") {
			if mode == ModeInsert {
				applyLiteralDefault(rec, f)
			}
			continue
		}

		_, present := rec[f.Name]
		if present && mode != ModeAlways {
			if !(mode == ModeUpdate && f.Name == "updatedAt" && token == tokenNow) {
				continue
			}
		}

		switch token {
		case tokenNow:
			if mode == ModeInsert || mode == ModeAlways || (mode == ModeUpdate && f.Name == "updatedAt") {
				rec[f.Name] = time.Now().UTC().Format(time.RFC3339Nano)
			}
		case tokenUUID:
			if mode == ModeInsert || mode == ModeAlways {
				rec[f.Name] = uuid.New().String()
			}
		case tokenUserID:
			if mode == ModeInsert || mode == ModeAlways {
				rec[f.Name] = userID
			}
		case tokenIncrement:
			if mode == ModeInsert {
				rec[f.Name] = nextIncrement(collection, f.Name)
			}
		case tokenHash:
			// handled by the hash pass below, after every field default
			// has been applied, so $hash can see literal input values too.
		}
	}

	applyHashPass(rec, fields)
}

func applyLiteralDefault(rec map[string]interface{}, f config.Field) {
	if _, present := rec[f.Name]; present {
		return
	}
	if f.DefaultValue == nil {
		return
	}
	rec[f.Name] = f.DefaultValue
}

func nextIncrement(collection []query.Record, field string) float64 {
	max := 0.0
	found := false
	for _, rec := range collection {
		if n, ok := asFloat(rec[field]); ok {
			if !found || n > max {
				max = n
				found = true
			}
		}
	}
	if !found {
		return 1
	}
	return max + 1
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// applyHashPass hashes every field whose defaultValue is $hash, and
// every field whose name contains "password" case-insensitively, unless
// the current value already looks like a hex digest.
func applyHashPass(rec map[string]interface{}, fields []config.Field) {
	hashFields := map[string]bool{}
	for _, f := range fields {
		if token, ok := f.DefaultValue.(string); ok && token == tokenHash {
			hashFields[f.Name] = true
		}
	}
	for name := range rec {
		if strings.Contains(strings.ToLower(name), "password") {
			hashFields[name] = true
		}
	}

	for name := range hashFields {
		value, ok := rec[name].(string)
		if !ok || value == "" {
			continue
		}
		if hexHashPattern.MatchString(value) {
			continue
		}
		rec[name] = HashString(value)
	}
}

// HashString returns the lowercase hex SHA-256 digest of s.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
