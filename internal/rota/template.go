package rota

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rota-go/internal/model"
)

// DateLayout is the calendar date format used for shift dates and CLI input.
const DateLayout = "2006-01-02"

// CreateTemplate validates and stores a new shift template with its time slots.
func (s *RotaService) CreateTemplate(ctx context.Context, tpl *model.ShiftTemplate) (*model.ShiftTemplate, error) {
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}

	now := s.now()
	tpl.ID = s.idgen.New()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	s.prepareSlots(tpl)

	if err := s.store.CreateShiftTemplate(ctx, tpl); err != nil {
		return nil, fmt.Errorf("creating shift template: %w", err)
	}

	s.logger.Info("shift template created", "template", tpl.ID, "name", tpl.Name, "pattern", string(tpl.Pattern))
	return tpl, nil
}

// GetTemplate returns a template with its time slots.
func (s *RotaService) GetTemplate(ctx context.Context, tenantID, id string) (*model.ShiftTemplate, error) {
	tpl, err := s.store.FindShiftTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("finding shift template: %w", err)
	}
	if tpl == nil {
		return nil, notFound("get", "shift template", id)
	}
	return tpl, nil
}

// ListTemplates returns all templates of a tenant.
func (s *RotaService) ListTemplates(ctx context.Context, tenantID string) ([]*model.ShiftTemplate, error) {
	tpls, err := s.store.ListShiftTemplates(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing shift templates: %w", err)
	}
	return tpls, nil
}

// UpdateTemplate replaces the template's fields and its time slots atomically.
func (s *RotaService) UpdateTemplate(ctx context.Context, tpl *model.ShiftTemplate) (*model.ShiftTemplate, error) {
	existing, err := s.GetTemplate(ctx, tpl.TenantID, tpl.ID)
	if err != nil {
		return nil, err
	}
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}

	tpl.CreatedAt = existing.CreatedAt
	tpl.UpdatedAt = s.now()
	s.prepareSlots(tpl)

	if err := s.store.UpdateShiftTemplate(ctx, tpl); err != nil {
		return nil, fmt.Errorf("updating shift template: %w", err)
	}

	s.logger.Info("shift template updated", "template", tpl.ID, "slots", len(tpl.Slots))
	return tpl, nil
}

// prepareSlots assigns fresh ids and positions to the template's slots.
func (s *RotaService) prepareSlots(tpl *model.ShiftTemplate) {
	for i := range tpl.Slots {
		tpl.Slots[i].ID = s.idgen.New()
		tpl.Slots[i].TemplateID = tpl.ID
		tpl.Slots[i].Position = i
	}
}

// ExpandTemplate generates and stores one shift per matching day in the
// inclusive range [from, to]. The template itself is never modified.
// A range with no matching days yields an empty list.
func (s *RotaService) ExpandTemplate(ctx context.Context, tenantID, templateID, storeID string, from, to time.Time) ([]*model.Shift, error) {
	tpl, err := s.GetTemplate(ctx, tenantID, templateID)
	if err != nil {
		return nil, err
	}

	days := DaysInRange(from, to, s.loc)
	if days <= 0 {
		return nil, invalidInputf("end date %s is before start date %s", to.Format(DateLayout), from.Format(DateLayout))
	}
	if days > s.maxDays {
		return nil, invalidInputf("range of %d days exceeds the expansion limit of %d", days, s.maxDays)
	}

	shifts, err := PlanShifts(tpl, storeID, from, to, s.loc)
	if err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		return []*model.Shift{}, nil
	}

	now := s.now()
	for _, sh := range shifts {
		sh.ID = s.idgen.New()
		sh.CreatedAt = now
	}

	if err := s.store.CreateShifts(ctx, shifts); err != nil {
		return nil, fmt.Errorf("storing expanded shifts: %w", err)
	}

	s.logger.Info("template expanded", "template", tpl.ID, "store", storeID, "shifts", len(shifts))
	return shifts, nil
}

// PlanShifts computes the shifts a template produces for storeID over the
// inclusive date range, interpreting times in loc. The returned shifts have no
// ID or creation time.
func PlanShifts(tpl *model.ShiftTemplate, storeID string, from, to time.Time, loc *time.Location) ([]*model.Shift, error) {
	sh, sm, err := parseClock(tpl.StartTime)
	if err != nil {
		return nil, err
	}
	eh, em, err := parseClock(tpl.EndTime)
	if err != nil {
		return nil, err
	}

	weekdays := make(map[time.Weekday]bool, len(tpl.DaysOfWeek))
	for _, d := range tpl.DaysOfWeek {
		weekdays[d] = true
	}

	first := dateOf(from, loc)
	last := dateOf(to, loc)

	shifts := []*model.Shift{}
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if tpl.Pattern == model.PatternWeekly && !weekdays[day.Weekday()] {
			continue
		}

		start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
		end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)
		if eh < sh {
			end = end.AddDate(0, 0, 1)
		}

		shifts = append(shifts, &model.Shift{
			TenantID:      tpl.TenantID,
			StoreID:       storeID,
			Date:          day.Format(DateLayout),
			StartAt:       start.UTC(),
			EndAt:         end.UTC(),
			RequiredStaff: tpl.RequiredStaff,
			AssignedUsers: []string{},
			Type:          ClassifyShift(sh),
			TemplateID:    tpl.ID,
			Skills:        append([]string{}, tpl.Skills...),
			Status:        model.ShiftDraft,
			Notes:         fmt.Sprintf("Generated from template %s", tpl.Name),
		})
	}
	return shifts, nil
}

// ClassifyShift derives the shift type from its start hour.
func ClassifyShift(startHour int) model.ShiftType {
	switch {
	case startHour < 14:
		return model.ShiftMorning
	case startHour < 22:
		return model.ShiftAfternoon
	default:
		return model.ShiftNight
	}
}

// DaysInRange counts the calendar days in the inclusive range, or 0 if to is before from.
func DaysInRange(from, to time.Time, loc *time.Location) int {
	first := dateOf(from, loc)
	last := dateOf(to, loc)
	if last.Before(first) {
		return 0
	}
	// Rounded so that DST transitions do not lose a day.
	return int(last.Sub(first).Hours()/24+0.5) + 1
}

// dateOf returns midnight of t's calendar date in loc.
func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDate parses a "2006-01-02" date as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, invalidInputf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return d, nil
}

// parseClock parses an "HH:MM" time of day.
func parseClock(value string) (int, int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, invalidInputf("invalid time %q, expected HH:MM", value)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, invalidInputf("invalid hour in %q", value)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, invalidInputf("invalid minute in %q", value)
	}
	return h, m, nil
}

// validSpan reports whether a start/end time of day yields end > start,
// treating an earlier end hour as an overnight span.
func validSpan(start, end string) error {
	sh, sm, err := parseClock(start)
	if err != nil {
		return err
	}
	eh, em, err := parseClock(end)
	if err != nil {
		return err
	}
	if eh < sh {
		return nil
	}
	if eh*60+em <= sh*60+sm {
		return invalidInputf("end time %s must be after start time %s", end, start)
	}
	return nil
}

func validateTemplate(tpl *model.ShiftTemplate) error {
	if strings.TrimSpace(tpl.TenantID) == "" {
		return invalidInputf("tenant id is required")
	}
	if strings.TrimSpace(tpl.Name) == "" {
		return invalidInputf("template name is required")
	}
	switch tpl.Pattern {
	case model.PatternDaily:
	case model.PatternWeekly:
		if len(tpl.DaysOfWeek) == 0 {
			return invalidInputf("weekly template requires at least one day of week")
		}
	default:
		return invalidInputf("unknown recurrence pattern %q", tpl.Pattern)
	}
	if err := validSpan(tpl.StartTime, tpl.EndTime); err != nil {
		return err
	}
	if tpl.RequiredStaff < 0 {
		return invalidInputf("required staff must not be negative")
	}
	if tpl.BreakMinutes < 0 {
		return invalidInputf("break minutes must not be negative")
	}
	for i, slot := range tpl.Slots {
		if err := validSpan(slot.StartTime, slot.EndTime); err != nil {
			return fmt.Errorf("slot %d: %w", i+1, err)
		}
		if slot.RequiredStaff < 0 {
			return invalidInputf("slot %d: required staff must not be negative", i+1)
		}
	}
	return nil
}

// ParseWeekdays parses a comma separated list such as "mon,wed,fri".
func ParseWeekdays(value string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
		"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
	}
	var days []time.Weekday
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) > 3 {
			part = part[:3]
		}
		d, ok := names[part]
		if !ok {
			return nil, invalidInputf("unknown day of week %q", part)
		}
		days = append(days, d)
	}
	return days, nil
}
