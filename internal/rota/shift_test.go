package rota_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rota-go/internal/model"
	"rota-go/internal/rota"
	"rota-go/internal/testutil"
)

func TestRotaService_CreateShift(t *testing.T) {
	ctx := context.Background()

	t.Run("overnight shift", func(t *testing.T) {
		svc := testutil.NewTestService(t)

		sh, err := svc.CreateShift(ctx, rota.ShiftInput{
			TenantID:      "t1",
			StoreID:       "store-1",
			Date:          day(15),
			StartTime:     "22:00",
			EndTime:       "06:00",
			RequiredStaff: 1,
			AssignedUsers: []string{"alice", "alice", ""},
		})
		if err != nil {
			t.Fatalf("CreateShift() error = %v", err)
		}

		got, err := svc.GetShift(ctx, "t1", sh.ID)
		if err != nil {
			t.Fatalf("GetShift() error = %v", err)
		}
		if want := time.Date(2024, 1, 16, 6, 0, 0, 0, time.UTC); !got.EndAt.Equal(want) {
			t.Errorf("EndAt = %v, want %v", got.EndAt, want)
		}
		if got.Type != model.ShiftNight {
			t.Errorf("Type = %q, want %q", got.Type, model.ShiftNight)
		}
		if len(got.AssignedUsers) != 1 || got.AssignedUsers[0] != "alice" {
			t.Errorf("AssignedUsers = %v, want [alice]", got.AssignedUsers)
		}
		if got.TemplateID != "" {
			t.Errorf("TemplateID = %q, want empty", got.TemplateID)
		}
	})

	t.Run("rejects missing store", func(t *testing.T) {
		svc := testutil.NewTestService(t)

		_, err := svc.CreateShift(ctx, rota.ShiftInput{TenantID: "t1", Date: day(15), StartTime: "09:00", EndTime: "17:00"})
		if !errors.Is(err, rota.ErrInvalidInput) {
			t.Errorf("CreateShift() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestRotaService_ShiftLifecycle(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*testutil.TestService, *model.Shift) {
		t.Helper()
		svc := testutil.NewTestService(t)
		sh, err := svc.CreateShift(ctx, rota.ShiftInput{
			TenantID:      "t1",
			StoreID:       "store-1",
			Date:          day(15),
			StartTime:     "09:00",
			EndTime:       "17:00",
			RequiredStaff: 2,
		})
		if err != nil {
			t.Fatalf("CreateShift() error = %v", err)
		}
		return svc, sh
	}

	t.Run("publish once", func(t *testing.T) {
		svc, sh := setup(t)

		got, err := svc.PublishShift(ctx, "t1", sh.ID)
		if err != nil {
			t.Fatalf("PublishShift() error = %v", err)
		}
		if got.Status != model.ShiftPublished {
			t.Errorf("Status = %q, want %q", got.Status, model.ShiftPublished)
		}
		if _, err := svc.PublishShift(ctx, "t1", sh.ID); !errors.Is(err, rota.ErrInvalidState) {
			t.Errorf("second PublishShift() error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("assign keeps order and ignores repeats", func(t *testing.T) {
		svc, sh := setup(t)

		for _, u := range []string{"bob", "alice", "bob"} {
			if _, err := svc.AssignUserToShift(ctx, "t1", sh.ID, u); err != nil {
				t.Fatalf("AssignUserToShift(%s) error = %v", u, err)
			}
		}

		got, err := svc.GetShift(ctx, "t1", sh.ID)
		if err != nil {
			t.Fatalf("GetShift() error = %v", err)
		}
		if len(got.AssignedUsers) != 2 || got.AssignedUsers[0] != "bob" || got.AssignedUsers[1] != "alice" {
			t.Errorf("AssignedUsers = %v, want [bob alice]", got.AssignedUsers)
		}
	})

	t.Run("remove user", func(t *testing.T) {
		svc, sh := setup(t)

		if _, err := svc.AssignUserToShift(ctx, "t1", sh.ID, "alice"); err != nil {
			t.Fatalf("AssignUserToShift() error = %v", err)
		}
		got, err := svc.RemoveUserFromShift(ctx, "t1", sh.ID, "alice")
		if err != nil {
			t.Fatalf("RemoveUserFromShift() error = %v", err)
		}
		if len(got.AssignedUsers) != 0 {
			t.Errorf("AssignedUsers = %v, want empty", got.AssignedUsers)
		}
	})

	t.Run("shifts of other tenants are invisible", func(t *testing.T) {
		svc, sh := setup(t)

		if _, err := svc.AssignUserToShift(ctx, "t2", sh.ID, "mallory"); !errors.Is(err, rota.ErrNotFound) {
			t.Errorf("AssignUserToShift() error = %v, want ErrNotFound", err)
		}
		if _, err := svc.PublishShift(ctx, "t2", sh.ID); !errors.Is(err, rota.ErrNotFound) {
			t.Errorf("PublishShift() error = %v, want ErrNotFound", err)
		}
		shifts, err := svc.ListShifts(ctx, "t2", "store-1", day(1), day(31))
		if err != nil {
			t.Fatalf("ListShifts() error = %v", err)
		}
		if len(shifts) != 0 {
			t.Errorf("ListShifts() = %d shifts, want 0", len(shifts))
		}
	})
}

func TestRotaService_Staff(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate member", func(t *testing.T) {
		svc := testutil.NewTestService(t)

		if _, err := svc.AddStaffMember(ctx, "t1", "store-1", "alice", "Alice"); err != nil {
			t.Fatalf("AddStaffMember() error = %v", err)
		}
		if _, err := svc.AddStaffMember(ctx, "t1", "store-1", "alice", "Alice"); !errors.Is(err, rota.ErrAlreadyExists) {
			t.Errorf("AddStaffMember() error = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("deactivate and reactivate", func(t *testing.T) {
		svc := testutil.NewTestService(t)

		if _, err := svc.AddStaffMember(ctx, "t1", "store-1", "alice", "Alice"); err != nil {
			t.Fatalf("AddStaffMember() error = %v", err)
		}
		if err := svc.SetStaffActive(ctx, "t1", "store-1", "alice", false); err != nil {
			t.Fatalf("SetStaffActive() error = %v", err)
		}
		staff, err := svc.ListActiveStaff(ctx, "t1", "store-1")
		if err != nil {
			t.Fatalf("ListActiveStaff() error = %v", err)
		}
		if len(staff) != 0 {
			t.Errorf("ListActiveStaff() = %d members, want 0", len(staff))
		}

		if err := svc.SetStaffActive(ctx, "t1", "store-1", "alice", true); err != nil {
			t.Fatalf("SetStaffActive() error = %v", err)
		}
		staff, err = svc.ListActiveStaff(ctx, "t1", "store-1")
		if err != nil {
			t.Fatalf("ListActiveStaff() error = %v", err)
		}
		if len(staff) != 1 || staff[0].Name != "Alice" {
			t.Errorf("ListActiveStaff() = %+v, want Alice", staff)
		}
	})

	t.Run("unknown member", func(t *testing.T) {
		svc := testutil.NewTestService(t)
		if err := svc.SetStaffActive(ctx, "t1", "store-1", "ghost", false); !errors.Is(err, rota.ErrNotFound) {
			t.Errorf("SetStaffActive() error = %v, want ErrNotFound", err)
		}
	})
}
