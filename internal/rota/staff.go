package rota

import (
	"context"
	"fmt"
	"strings"

	"rota-go/internal/model"
)

// AddStaffMember puts a user on a store roster as active.
func (s *RotaService) AddStaffMember(ctx context.Context, tenantID, storeID, userID, name string) (*model.StaffMember, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(storeID) == "" {
		return nil, invalidInputf("user id and store id are required")
	}

	member := &model.StaffMember{
		TenantID:  tenantID,
		UserID:    userID,
		StoreID:   storeID,
		Name:      name,
		Active:    true,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateStaffMember(ctx, member); err != nil {
		return nil, fmt.Errorf("adding staff member: %w", err)
	}

	s.logger.Info("staff member added", "store", storeID, "user", userID)
	return member, nil
}

// SetStaffActive marks a roster entry active or inactive.
func (s *RotaService) SetStaffActive(ctx context.Context, tenantID, storeID, userID string, active bool) error {
	ok, err := s.store.SetStaffActive(ctx, tenantID, storeID, userID, active)
	if err != nil {
		return fmt.Errorf("updating staff member: %w", err)
	}
	if !ok {
		return notFound("update", "staff member", userID)
	}
	s.logger.Info("staff member updated", "store", storeID, "user", userID, "active", active)
	return nil
}

// ListActiveStaff returns the store's active roster in enumeration order.
func (s *RotaService) ListActiveStaff(ctx context.Context, tenantID, storeID string) ([]*model.StaffMember, error) {
	staff, err := s.store.ListActiveStaff(ctx, tenantID, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing staff: %w", err)
	}
	return staff, nil
}
