package testutil

import (
	"time"

	"rota-go/internal/model"
)

// ShiftBuilder builds model.Shift values for pure-function tests.
type ShiftBuilder struct {
	shift model.Shift
}

// NewShift starts a one-person draft shift for tenant "t1" and store "store-1"
// from start lasting d.
func NewShift(id string, start time.Time, d time.Duration) *ShiftBuilder {
	start = start.UTC()
	return &ShiftBuilder{shift: model.Shift{
		ID:            id,
		TenantID:      "t1",
		StoreID:       "store-1",
		Date:          start.Format("2006-01-02"),
		StartAt:       start,
		EndAt:         start.Add(d),
		RequiredStaff: 1,
		AssignedUsers: []string{},
		Type:          model.ShiftMorning,
		Status:        model.ShiftDraft,
	}}
}

func (b *ShiftBuilder) Store(storeID string) *ShiftBuilder {
	b.shift.StoreID = storeID
	return b
}

func (b *ShiftBuilder) Required(n int) *ShiftBuilder {
	b.shift.RequiredStaff = n
	return b
}

func (b *ShiftBuilder) Assigned(userIDs ...string) *ShiftBuilder {
	b.shift.AssignedUsers = append(b.shift.AssignedUsers, userIDs...)
	return b
}

func (b *ShiftBuilder) Build() *model.Shift {
	sh := b.shift
	sh.AssignedUsers = append([]string{}, b.shift.AssignedUsers...)
	return &sh
}

// TemplateBuilder builds model.ShiftTemplate values.
type TemplateBuilder struct {
	tpl model.ShiftTemplate
}

// NewTemplate starts a daily 09:00-17:00 template for tenant "t1".
func NewTemplate(name string) *TemplateBuilder {
	return &TemplateBuilder{tpl: model.ShiftTemplate{
		TenantID:      "t1",
		Name:          name,
		Pattern:       model.PatternDaily,
		StartTime:     "09:00",
		EndTime:       "17:00",
		RequiredStaff: 1,
		Skills:        []string{},
	}}
}

// Weekly switches the template to a weekly pattern on days.
func (b *TemplateBuilder) Weekly(days ...time.Weekday) *TemplateBuilder {
	b.tpl.Pattern = model.PatternWeekly
	b.tpl.DaysOfWeek = days
	return b
}

func (b *TemplateBuilder) Hours(start, end string) *TemplateBuilder {
	b.tpl.StartTime = start
	b.tpl.EndTime = end
	return b
}

func (b *TemplateBuilder) Required(n int) *TemplateBuilder {
	b.tpl.RequiredStaff = n
	return b
}

func (b *TemplateBuilder) Skills(skills ...string) *TemplateBuilder {
	b.tpl.Skills = skills
	return b
}

func (b *TemplateBuilder) Slot(label, start, end string, required int) *TemplateBuilder {
	b.tpl.Slots = append(b.tpl.Slots, model.TimeSlot{
		Label:         label,
		StartTime:     start,
		EndTime:       end,
		RequiredStaff: required,
	})
	return b
}

func (b *TemplateBuilder) Build() *model.ShiftTemplate {
	tpl := b.tpl
	tpl.Slots = append([]model.TimeSlot(nil), b.tpl.Slots...)
	return &tpl
}
