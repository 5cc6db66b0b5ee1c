package app

import (
	"context"
	"fmt"

	"rota-go/internal/config"
	"rota-go/internal/rota"
)

// StaticAuthorizer resolves scopes from the [auth] section of the config.
// The configured user gets the configured scope; any other caller only sees
// their own entries.
type StaticAuthorizer struct {
	tenantID string
	auth     config.AuthConfig
}

var _ rota.Authorizer = (*StaticAuthorizer)(nil)

// NewStaticAuthorizer validates the scope level and returns an authorizer.
func NewStaticAuthorizer(tenantID string, auth config.AuthConfig) (*StaticAuthorizer, error) {
	switch rota.ScopeLevel(auth.Scope) {
	case rota.ScopeOwn, rota.ScopeTeam, rota.ScopeStore, rota.ScopeArea, rota.ScopeTenant:
	case "":
		auth.Scope = string(rota.ScopeOwn)
	default:
		return nil, fmt.Errorf("unknown auth scope %q", auth.Scope)
	}
	return &StaticAuthorizer{tenantID: tenantID, auth: auth}, nil
}

func (a *StaticAuthorizer) Resolve(_ context.Context, callerID string) (rota.Scope, error) {
	if callerID == "" {
		callerID = a.auth.UserID
	}
	if callerID == "" {
		return rota.Scope{}, fmt.Errorf("%w: no caller; set auth.user_id or pass --as", rota.ErrInvalidInput)
	}

	if callerID != a.auth.UserID {
		return rota.Scope{TenantID: a.tenantID, UserID: callerID, Level: rota.ScopeOwn}, nil
	}
	return rota.Scope{
		TenantID:    a.tenantID,
		UserID:      callerID,
		Level:       rota.ScopeLevel(a.auth.Scope),
		TeamUserIDs: append([]string{}, a.auth.TeamUserIDs...),
		StoreIDs:    append([]string{}, a.auth.StoreIDs...),
		HRSensitive: a.auth.HRAccess,
	}, nil
}
