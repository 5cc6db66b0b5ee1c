package rota_test

import (
	"context"
	"testing"
	"time"

	"rota-go/internal/model"
	"rota-go/internal/rota"
	"rota-go/internal/testutil"
)

func countKind(conflicts []model.Conflict, kind model.ConflictKind) int {
	n := 0
	for _, c := range conflicts {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func TestDetectDoubleBookings(t *testing.T) {
	t.Run("overlapping shifts conflict", func(t *testing.T) {
		shifts := []*model.Shift{
			testutil.NewShift("s1", at(9, 0), 4*time.Hour).Assigned("alice").Build(),
			testutil.NewShift("s2", at(12, 0), 4*time.Hour).Assigned("alice").Build(),
		}

		got := rota.DetectDoubleBookings(shifts, "alice")
		if len(got) != 1 {
			t.Fatalf("got %d conflicts, want 1", len(got))
		}
		c := got[0]
		if c.Kind != model.ConflictDoubleBooking {
			t.Errorf("Kind = %q, want %q", c.Kind, model.ConflictDoubleBooking)
		}
		if c.Severity != model.SeverityError {
			t.Errorf("Severity = %q, want %q", c.Severity, model.SeverityError)
		}
		if len(c.ShiftIDs) != 2 || c.ShiftIDs[0] != "s1" || c.ShiftIDs[1] != "s2" {
			t.Errorf("ShiftIDs = %v, want [s1 s2]", c.ShiftIDs)
		}
		if c.UserID != "alice" {
			t.Errorf("UserID = %q, want %q", c.UserID, "alice")
		}
	})

	t.Run("touching shifts do not conflict", func(t *testing.T) {
		shifts := []*model.Shift{
			testutil.NewShift("s1", at(9, 0), 4*time.Hour).Assigned("alice").Build(),
			testutil.NewShift("s2", at(13, 0), 4*time.Hour).Assigned("alice").Build(),
		}

		if got := rota.DetectDoubleBookings(shifts, "alice"); len(got) != 0 {
			t.Errorf("got %d conflicts, want 0", len(got))
		}
	})

	t.Run("other users are ignored", func(t *testing.T) {
		shifts := []*model.Shift{
			testutil.NewShift("s1", at(9, 0), 4*time.Hour).Assigned("alice").Build(),
			testutil.NewShift("s2", at(12, 0), 4*time.Hour).Assigned("bob").Build(),
		}

		if got := rota.DetectDoubleBookings(shifts, "alice"); len(got) != 0 {
			t.Errorf("got %d conflicts, want 0", len(got))
		}
	})
}

func TestDetectInsufficientRest(t *testing.T) {
	late := testutil.NewShift("late", at(14, 0), 8*time.Hour).Assigned("alice").Build() // ends 22:00

	tests := []struct {
		name      string
		nextStart time.Time
		want      int
	}{
		{"nine hours rest", time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC), 1},
		{"exactly eleven hours", time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC), 0},
		{"plenty of rest", time.Date(2024, 1, 16, 14, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := testutil.NewShift("next", tt.nextStart, 8*time.Hour).Assigned("alice").Build()

			// Input order must not matter.
			got := rota.DetectInsufficientRest([]*model.Shift{next, late}, "alice")
			if len(got) != tt.want {
				t.Fatalf("got %d conflicts, want %d", len(got), tt.want)
			}
			if tt.want == 1 {
				if got[0].Kind != model.ConflictInsufficientRest {
					t.Errorf("Kind = %q, want %q", got[0].Kind, model.ConflictInsufficientRest)
				}
				if got[0].ShiftIDs[0] != "late" || got[0].ShiftIDs[1] != "next" {
					t.Errorf("ShiftIDs = %v, want [late next]", got[0].ShiftIDs)
				}
			}
		})
	}
}

func TestDetectUnderstaffing(t *testing.T) {
	shifts := []*model.Shift{
		testutil.NewShift("full", at(9, 0), time.Hour).Required(1).Assigned("alice").Build(),
		testutil.NewShift("short", at(9, 0), time.Hour).Required(3).Assigned("bob").Build(),
		testutil.NewShift("none", at(9, 0), time.Hour).Required(0).Build(),
	}

	got := rota.DetectUnderstaffing(shifts)
	if len(got) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(got))
	}
	if got[0].ShiftIDs[0] != "short" {
		t.Errorf("ShiftIDs = %v, want [short]", got[0].ShiftIDs)
	}
	if got[0].Severity != model.SeverityWarning {
		t.Errorf("Severity = %q, want %q", got[0].Severity, model.SeverityWarning)
	}
}

func TestRotaService_DetectConflicts(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *testutil.TestService {
		t.Helper()
		svc := testutil.NewTestService(t)
		inputs := []rota.ShiftInput{
			{StoreID: "store-1", StartTime: "09:00", EndTime: "13:00", RequiredStaff: 1, AssignedUsers: []string{"alice"}},
			{StoreID: "store-2", StartTime: "12:00", EndTime: "16:00", RequiredStaff: 1, AssignedUsers: []string{"alice"}},
			{StoreID: "store-1", StartTime: "12:00", EndTime: "18:00", RequiredStaff: 2, AssignedUsers: []string{"bob"}},
		}
		for _, in := range inputs {
			in.TenantID = "t1"
			in.Date = day(15)
			if _, err := svc.CreateShift(ctx, in); err != nil {
				t.Fatalf("CreateShift() error = %v", err)
			}
		}
		return svc
	}

	t.Run("without user only understaffing is reported", func(t *testing.T) {
		svc := setup(t)

		got, err := svc.DetectConflicts(ctx, "t1", "store-1", rota.ConflictQuery{})
		if err != nil {
			t.Fatalf("DetectConflicts() error = %v", err)
		}
		if len(got) != 1 || got[0].Kind != model.ConflictUnderstaffed {
			t.Errorf("DetectConflicts() = %+v, want one understaffed conflict", got)
		}
	})

	t.Run("user checks span all stores of the tenant", func(t *testing.T) {
		svc := setup(t)

		got, err := svc.DetectConflicts(ctx, "t1", "store-1", rota.ConflictQuery{UserID: "alice"})
		if err != nil {
			t.Fatalf("DetectConflicts() error = %v", err)
		}
		if n := countKind(got, model.ConflictDoubleBooking); n != 1 {
			t.Errorf("double bookings = %d, want 1", n)
		}
		if n := countKind(got, model.ConflictUnderstaffed); n != 1 {
			t.Errorf("understaffed = %d, want 1", n)
		}
	})

	t.Run("conflict free schedule returns empty list", func(t *testing.T) {
		svc := testutil.NewTestService(t)

		got, err := svc.DetectConflicts(ctx, "t1", "store-1", rota.ConflictQuery{AllUsers: true})
		if err != nil {
			t.Fatalf("DetectConflicts() error = %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("DetectConflicts() = %v, want empty non-nil list", got)
		}
	})
}
