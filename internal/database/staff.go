package database

import (
	"context"
	"fmt"
	"time"

	"rota-go/internal/model"
	"rota-go/internal/rota"
)

func (s *SQLiteDatabase) CreateStaffMember(ctx context.Context, member *model.StaffMember) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO staff_members
		(tenant_id, store_id, user_id, name, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		member.TenantID, member.StoreID, member.UserID, member.Name, boolInt(member.Active), member.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("adding %s to store %s: %w", member.UserID, member.StoreID, rota.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting staff member: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) SetStaffActive(ctx context.Context, tenantID, storeID, userID string, active bool) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE staff_members SET active = ?
		WHERE tenant_id = ? AND store_id = ? AND user_id = ?`,
		boolInt(active), tenantID, storeID, userID)
	if err != nil {
		return false, fmt.Errorf("updating staff member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating staff member: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteDatabase) ListActiveStaff(ctx context.Context, tenantID, storeID string) ([]*model.StaffMember, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tenant_id, store_id, user_id, name, active, created_at
		FROM staff_members
		WHERE tenant_id = ? AND store_id = ? AND active = 1
		ORDER BY created_at, rowid`, tenantID, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing staff: %w", err)
	}
	defer rows.Close()

	members := []*model.StaffMember{}
	for rows.Next() {
		var (
			m         model.StaffMember
			active    int
			createdAt time.Time
		)
		if err := rows.Scan(&m.TenantID, &m.StoreID, &m.UserID, &m.Name, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning staff member: %w", err)
		}
		m.Active = active != 0
		m.CreatedAt = createdAt.UTC()
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing staff: %w", err)
	}
	return members, nil
}
