package app

import (
	"context"
	"errors"
	"testing"

	"rota-go/internal/config"
	"rota-go/internal/rota"
)

func TestStaticAuthorizer_Resolve(t *testing.T) {
	auth := config.AuthConfig{
		UserID:      "manager",
		Scope:       "team",
		TeamUserIDs: []string{"alice", "bob"},
		HRAccess:    true,
	}
	a, err := NewStaticAuthorizer("acme", auth)
	if err != nil {
		t.Fatalf("NewStaticAuthorizer() error = %v", err)
	}

	t.Run("configured user gets configured scope", func(t *testing.T) {
		sc, err := a.Resolve(context.Background(), "")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if sc.UserID != "manager" || sc.Level != rota.ScopeTeam || sc.TenantID != "acme" {
			t.Errorf("Resolve() = %+v", sc)
		}
		if len(sc.TeamUserIDs) != 2 || !sc.HRSensitive {
			t.Errorf("Resolve() team/hr = %v/%v", sc.TeamUserIDs, sc.HRSensitive)
		}
	})

	t.Run("other caller sees own entries only", func(t *testing.T) {
		sc, err := a.Resolve(context.Background(), "alice")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if sc.UserID != "alice" || sc.Level != rota.ScopeOwn || sc.HRSensitive {
			t.Errorf("Resolve() = %+v", sc)
		}
	})
}

func TestStaticAuthorizer_noCaller(t *testing.T) {
	a, err := NewStaticAuthorizer("acme", config.AuthConfig{})
	if err != nil {
		t.Fatalf("NewStaticAuthorizer() error = %v", err)
	}
	if _, err := a.Resolve(context.Background(), ""); !errors.Is(err, rota.ErrInvalidInput) {
		t.Errorf("Resolve() error = %v, want ErrInvalidInput", err)
	}
}

func TestNewStaticAuthorizer_unknownScope(t *testing.T) {
	if _, err := NewStaticAuthorizer("acme", config.AuthConfig{Scope: "galaxy"}); err == nil {
		t.Error("NewStaticAuthorizer() expected error for unknown scope")
	}
}
