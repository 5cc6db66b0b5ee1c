package rota

import (
	"context"
	"fmt"

	"rota-go/internal/model"
)

// ScopeLevel is the breadth of data a caller may see.
type ScopeLevel string

const (
	ScopeOwn    ScopeLevel = "own"
	ScopeTeam   ScopeLevel = "team"
	ScopeStore  ScopeLevel = "store"
	ScopeArea   ScopeLevel = "area"
	ScopeTenant ScopeLevel = "tenant"
)

// Scope is the caller's resolved visibility. The service trusts it as given.
type Scope struct {
	TenantID    string
	UserID      string
	Level       ScopeLevel
	TeamUserIDs []string // used for ScopeTeam
	StoreIDs    []string // used for ScopeStore and ScopeArea
	HRSensitive bool     // may see notes and dispute reasons
}

// Authorizer resolves the visibility scope of a caller.
type Authorizer interface {
	Resolve(ctx context.Context, callerID string) (Scope, error)
}

// narrow restricts filter to what scope may see.
func (sc Scope) narrow(filter model.TimeEntryFilter) (model.TimeEntryFilter, error) {
	filter.TenantID = sc.TenantID
	switch sc.Level {
	case ScopeOwn:
		filter.UserIDs = []string{sc.UserID}
	case ScopeTeam:
		filter.UserIDs = intersectOrAll(filter.UserIDs, append([]string{sc.UserID}, sc.TeamUserIDs...))
	case ScopeStore, ScopeArea:
		filter.StoreIDs = intersectOrAll(filter.StoreIDs, sc.StoreIDs)
	case ScopeTenant:
	default:
		return filter, fmt.Errorf("%w: unknown scope level %q", ErrInvalidInput, sc.Level)
	}
	return filter, nil
}

// intersectOrAll returns allowed when requested is empty, otherwise the
// members of requested that are also allowed. An empty intersection yields a
// non-nil empty slice so that nothing matches.
func intersectOrAll(requested, allowed []string) []string {
	if len(requested) == 0 {
		return append([]string{}, allowed...)
	}
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	out := []string{}
	for _, r := range requested {
		if ok[r] {
			out = append(out, r)
		}
	}
	return out
}
