package authsvc

import (
	"strconv"
	"strings"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
)

const (
	roleAny   = "*"
	roleOwner = "owner"
)

// Decision is the outcome of an access-control check.
type Decision int

// Recognized decisions.
const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

// Authorize implements the policy of spec.md §4.8 for one action on one
// resource. subject is nil for an unauthenticated request. record is
// the target record, used only when roles contains "owner"; it may be
// nil when the action has no single target (list, create).
func Authorize(access config.Access, action config.Action, resource config.Resource, subject *Subject, record query.Record) Decision {
	roles := access[action]
	if len(roles) == 0 {
		return Allow
	}
	if subject == nil {
		return DenyUnauthenticated
	}
	for _, role := range roles {
		switch role {
		case roleAny:
			return Allow
		case roleOwner:
			if record != nil && ownerMatches(resource, record, subject) {
				return Allow
			}
		default:
			if subject.Role == role {
				return Allow
			}
		}
	}
	return DenyForbidden
}

// ownerMatches compares a record's ownedBy field to the subject's id,
// per spec.md §8: "loose equality after string-trim and numeric
// normalization".
func ownerMatches(resource config.Resource, record query.Record, subject *Subject) bool {
	if resource.OwnedBy == "" {
		return false
	}
	return looseEqual(record[resource.OwnedBy], subject.ID)
}

func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	as := normalizeString(a)
	bs := normalizeString(b)
	return as == bs
}

func normalizeString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(toString(t))
	}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func toFloat(v interface{}) (float64, bool) {
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

// ActionForMethod derives the access-control action from an HTTP
// method and whether the path carries a record id, per spec.md §4.8.
func ActionForMethod(method string, hasID bool) (config.Action, bool) {
	switch strings.ToUpper(method) {
	case "GET":
		if hasID {
			return config.ActionGet, true
		}
		return config.ActionList, true
	case "POST":
		return config.ActionCreate, true
	case "PUT", "PATCH":
		return config.ActionUpdate, true
	case "DELETE":
		return config.ActionDelete, true
	default:
		return "", false
	}
}
