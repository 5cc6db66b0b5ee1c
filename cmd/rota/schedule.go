package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"rota-go/internal/app"
	"rota-go/internal/model"
	"rota-go/internal/rota"

	"github.com/spf13/cobra"
)

// staff command
var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage store rosters",
}

var staffAddCmd = &cobra.Command{
	Use:   "add STORE_ID USER_ID [NAME]",
	Short: "Add a user to a store roster",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		name := ""
		if len(args) == 3 {
			name = args[2]
		}
		if _, err := a.AddStaff(cmd.Context(), args[0], args[1], name); err != nil {
			return err
		}
		fmt.Printf("Added %s to %s\n", args[1], args[0])
		return nil
	},
}

var staffListCmd = &cobra.Command{
	Use:   "list STORE_ID",
	Short: "List the active roster of a store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		staff, err := a.ListStaff(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(staff) == 0 {
			fmt.Println("No active staff.")
			return nil
		}
		for _, m := range staff {
			fmt.Printf("%-20s  %s\n", m.UserID, m.Name)
		}
		return nil
	},
}

func staffActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " STORE_ID USER_ID",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.SetStaffActive(cmd.Context(), args[0], args[1], active); err != nil {
				return err
			}
			fmt.Printf("%s is now %s in %s\n", args[1], map[bool]string{true: "active", false: "inactive"}[active], args[0])
			return nil
		},
	}
}

// template command
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage shift templates",
}

func templateParams(cmd *cobra.Command, name string) app.TemplateParams {
	f := cmd.Flags()
	p := app.TemplateParams{Name: name}
	p.Pattern, _ = f.GetString("pattern")
	p.Days, _ = f.GetString("days")
	p.StartTime, _ = f.GetString("start")
	p.EndTime, _ = f.GetString("end")
	p.RequiredStaff, _ = f.GetInt("required")
	p.BreakMinutes, _ = f.GetInt("break")
	p.Skills, _ = f.GetStringSlice("skill")
	p.Slots, _ = f.GetStringArray("slot")
	return p
}

var templateCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a recurring shift template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tpl, err := a.CreateTemplate(cmd.Context(), templateParams(cmd, args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("Created template %s\n", tpl.ID)
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shift templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tpls, err := a.ListTemplates(cmd.Context())
		if err != nil {
			return err
		}
		if len(tpls) == 0 {
			fmt.Println("No templates.")
			return nil
		}
		for _, t := range tpls {
			fmt.Printf("%s  %-20s  %-6s  %s-%s  staff:%d  %s\n",
				t.ID, t.Name, t.Pattern, t.StartTime, t.EndTime, t.RequiredStaff, weekdayList(t.DaysOfWeek))
			for _, s := range t.Slots {
				fmt.Printf("    %-16s  %s-%s  staff:%d\n", s.Label, s.StartTime, s.EndTime, s.RequiredStaff)
			}
		}
		return nil
	},
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update TEMPLATE_ID",
	Short: "Change a template; only flags given are applied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		f := cmd.Flags()
		p := templateParams(cmd, "")
		p.Name, _ = f.GetString("name")

		tpl, err := a.UpdateTemplate(cmd.Context(), args[0], func(t *model.ShiftTemplate) error {
			if f.Changed("name") {
				t.Name = p.Name
			}
			if f.Changed("pattern") {
				t.Pattern = model.RecurrencePattern(strings.ToLower(p.Pattern))
			}
			if f.Changed("days") {
				days, err := rota.ParseWeekdays(p.Days)
				if err != nil {
					return err
				}
				t.DaysOfWeek = days
			}
			if f.Changed("start") {
				t.StartTime = p.StartTime
			}
			if f.Changed("end") {
				t.EndTime = p.EndTime
			}
			if f.Changed("required") {
				t.RequiredStaff = p.RequiredStaff
			}
			if f.Changed("break") {
				t.BreakMinutes = p.BreakMinutes
			}
			if f.Changed("skill") {
				t.Skills = p.Skills
			}
			if f.Changed("slot") || f.Changed("clear-slots") {
				t.Slots = nil
				for _, raw := range p.Slots {
					slot, err := app.ParseSlot(raw, t.RequiredStaff)
					if err != nil {
						return err
					}
					t.Slots = append(t.Slots, slot)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("Updated template %s (%d slots)\n", tpl.ID, len(tpl.Slots))
		return nil
	},
}

var templateExpandCmd = &cobra.Command{
	Use:   "expand TEMPLATE_ID STORE_ID",
	Short: "Generate draft shifts from a template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		shifts, err := a.ExpandTemplate(cmd.Context(), args[0], args[1], from, to)
		if err != nil {
			return err
		}
		fmt.Printf("Generated %d shift(s)\n", len(shifts))
		printShifts(shifts, a.Location())
		return nil
	},
}

// shift command
var shiftCmd = &cobra.Command{
	Use:   "shift",
	Short: "Manage shifts",
}

var shiftCreateCmd = &cobra.Command{
	Use:   "create STORE_ID DATE START END",
	Short: "Create a single draft shift",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		p := app.ShiftParams{StoreID: args[0], Date: args[1], StartTime: args[2], EndTime: args[3]}
		p.RequiredStaff, _ = f.GetInt("required")
		p.AssignedUsers, _ = f.GetStringSlice("assign")
		p.Skills, _ = f.GetStringSlice("skill")
		p.Notes, _ = f.GetString("notes")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sh, err := a.CreateShift(cmd.Context(), p)
		if err != nil {
			return err
		}
		fmt.Printf("Created shift %s\n", sh.ID)
		return nil
	},
}

var shiftListCmd = &cobra.Command{
	Use:   "list STORE_ID",
	Short: "List shifts in a date range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		shifts, err := a.ListShifts(cmd.Context(), args[0], from, to)
		if err != nil {
			return err
		}
		if len(shifts) == 0 {
			fmt.Println("No shifts.")
			return nil
		}
		printShifts(shifts, a.Location())
		return nil
	},
}

var shiftPublishCmd = &cobra.Command{
	Use:   "publish SHIFT_ID",
	Short: "Publish a draft shift",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.PublishShift(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Published shift %s\n", args[0])
		return nil
	},
}

var shiftAssignCmd = &cobra.Command{
	Use:   "assign SHIFT_ID USER_ID",
	Short: "Assign a user to a shift",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sh, conflicts, err := a.AssignUser(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Assigned %s to %s (%d/%d)\n", args[1], sh.ID, len(sh.AssignedUsers), sh.RequiredStaff)
		printConflicts(conflicts)
		return nil
	},
}

var shiftUnassignCmd = &cobra.Command{
	Use:   "unassign SHIFT_ID USER_ID",
	Short: "Remove a user from a shift",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sh, err := a.UnassignUser(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Removed %s from %s (%d/%d)\n", args[1], sh.ID, len(sh.AssignedUsers), sh.RequiredStaff)
		return nil
	},
}

// coverage command
var coverageCmd = &cobra.Command{
	Use:   "coverage STORE_ID",
	Short: "Show hourly staffing coverage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		pdfPath, _ := cmd.Flags().GetString("pdf")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if pdfPath != "" {
			f, err := os.Create(pdfPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", pdfPath, err)
			}
			if err := a.WriteCoverageReport(cmd.Context(), f, args[0], from, to); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", pdfPath, err)
			}
			fmt.Printf("Wrote %s\n", pdfPath)
			return nil
		}

		buckets, err := a.Coverage(cmd.Context(), args[0], from, to)
		if err != nil {
			return err
		}
		if len(buckets) == 0 {
			fmt.Println("No shifts in range.")
			return nil
		}
		for _, b := range buckets {
			fmt.Printf("%s  %02d:00  %3d/%-3d  %5.0f%%  %s\n", b.Date, b.Hour, b.Scheduled, b.Required, b.Coverage, b.Status)
		}
		return nil
	},
}

// conflicts command
var conflictsCmd = &cobra.Command{
	Use:   "conflicts STORE_ID",
	Short: "Detect scheduling conflicts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		p := app.ConflictParams{StoreID: args[0]}
		p.UserID, _ = f.GetString("user")
		p.AllUsers, _ = f.GetBool("all-users")
		p.From, _ = f.GetString("from")
		p.To, _ = f.GetString("to")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		conflicts, err := a.Conflicts(cmd.Context(), p)
		if err != nil {
			return err
		}
		if len(conflicts) == 0 {
			fmt.Println("No conflicts.")
			return nil
		}
		printConflicts(conflicts)
		return nil
	},
}

// autoschedule command
var autoscheduleCmd = &cobra.Command{
	Use:   "autoschedule STORE_ID",
	Short: "Fill understaffed shifts from the active roster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.AutoSchedule(cmd.Context(), args[0], from, to, dryRun)
		if err != nil {
			return err
		}

		if dryRun {
			fmt.Println("Dry run: nothing was saved.")
		}
		st := result.Stats
		fmt.Printf("Shifts: %d  updated: %d  assignments: %d  still understaffed: %d\n",
			st.TotalShifts, st.ShiftsUpdated, st.AssignmentsMade, st.StillUnderstaffed)
		printShifts(result.Shifts, a.Location())
		printConflicts(result.Conflicts)
		return nil
	},
}

func printShifts(shifts []*model.Shift, loc *time.Location) {
	for _, sh := range shifts {
		fmt.Printf("%s  %s  %s-%s  %-9s  %-9s  %d/%d  %s\n",
			sh.ID,
			sh.Date,
			sh.StartAt.In(loc).Format("15:04"),
			sh.EndAt.In(loc).Format("15:04"),
			sh.Type,
			sh.Status,
			len(sh.AssignedUsers),
			sh.RequiredStaff,
			strings.Join(sh.AssignedUsers, ","),
		)
	}
}

func printConflicts(conflicts []model.Conflict) {
	for _, c := range conflicts {
		fmt.Printf("%-7s  %-17s  %s\n", strings.ToUpper(string(c.Severity)), c.Kind, c.Message)
	}
}

func weekdayList(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = strings.ToLower(d.String()[:3])
	}
	return strings.Join(names, ",")
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "First date, YYYY-MM-DD (default today)")
	cmd.Flags().String("to", "", "Last date, YYYY-MM-DD (default six days after --from)")
}

func addTemplateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("pattern", "daily", "Recurrence: daily or weekly")
	f.String("days", "", "Days for weekly templates, e.g. mon,wed,fri")
	f.String("start", "09:00", "Start time HH:MM")
	f.String("end", "17:00", "End time HH:MM; earlier than start means overnight")
	f.Int("required", 1, "Required staff per shift")
	f.Int("break", 0, "Planned break minutes")
	f.StringSlice("skill", nil, "Required skill (repeatable)")
	f.StringArray("slot", nil, "Time slot label=HH:MM-HH:MM[/N] (repeatable)")
}

func init() {
	staffCmd.AddCommand(staffAddCmd)
	staffCmd.AddCommand(staffListCmd)
	staffCmd.AddCommand(staffActiveCmd("activate", "Reactivate a roster entry", true))
	staffCmd.AddCommand(staffActiveCmd("deactivate", "Deactivate a roster entry", false))

	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateUpdateCmd)
	templateCmd.AddCommand(templateExpandCmd)
	addTemplateFlags(templateCreateCmd)
	addTemplateFlags(templateUpdateCmd)
	templateUpdateCmd.Flags().String("name", "", "New template name")
	templateUpdateCmd.Flags().Bool("clear-slots", false, "Remove all time slots")
	addRangeFlags(templateExpandCmd)

	shiftCmd.AddCommand(shiftCreateCmd)
	shiftCmd.AddCommand(shiftListCmd)
	shiftCmd.AddCommand(shiftPublishCmd)
	shiftCmd.AddCommand(shiftAssignCmd)
	shiftCmd.AddCommand(shiftUnassignCmd)
	shiftCreateCmd.Flags().Int("required", 1, "Required staff")
	shiftCreateCmd.Flags().StringSlice("assign", nil, "Users to assign")
	shiftCreateCmd.Flags().StringSlice("skill", nil, "Required skill (repeatable)")
	shiftCreateCmd.Flags().String("notes", "", "Free-text notes")
	addRangeFlags(shiftListCmd)

	addRangeFlags(coverageCmd)
	coverageCmd.Flags().String("pdf", "", "Write a PDF report with conflicts to this path")

	addRangeFlags(conflictsCmd)
	conflictsCmd.Flags().String("user", "", "Check this user's bookings across all stores")
	conflictsCmd.Flags().Bool("all-users", false, "Check every user assigned in the store")

	addRangeFlags(autoscheduleCmd)
	autoscheduleCmd.Flags().Bool("dry-run", false, "Compute assignments without saving them")

	rootCmd.AddCommand(staffCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(shiftCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(autoscheduleCmd)
}
