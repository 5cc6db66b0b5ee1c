package main

import (
	"fmt"

	"rota-go/internal/app"
	"rota-go/internal/model"
	"rota-go/internal/rota"

	"github.com/spf13/cobra"
)

// clock command
var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Clock in and out",
}

var clockInCmd = &cobra.Command{
	Use:   "in",
	Short: "Start a work session",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		user, _ := f.GetString("user")
		var opts rota.ClockInOptions
		opts.StoreID, _ = f.GetString("store")
		opts.BreakMinutes, _ = f.GetInt("break")
		opts.Notes, _ = f.GetString("notes")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.ClockIn(cmd.Context(), user, opts)
		if err != nil {
			return err
		}
		fmt.Printf("Clocked in %s at %s (entry %s)\n", e.UserID, e.ClockIn.In(a.Location()).Format("15:04"), e.ID)
		return nil
	},
}

var clockOutCmd = &cobra.Command{
	Use:   "out ENTRY_ID",
	Short: "End a work session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.ClockOut(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Clocked out: %d min total, %d min break, %d min worked\n", e.TotalMinutes, e.BreakDuration, e.NetMinutes)
		return nil
	},
}

// break command
var breakCmd = &cobra.Command{
	Use:   "break",
	Short: "Start and end breaks",
}

var breakStartCmd = &cobra.Command{
	Use:   "start ENTRY_ID",
	Short: "Start a break",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.StartBreak(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Break started.")
		return nil
	},
}

var breakEndCmd = &cobra.Command{
	Use:   "end ENTRY_ID",
	Short: "End the running break",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.EndBreak(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Break ended; %d min of breaks so far.\n", e.BreakDuration)
		return nil
	},
}

// entry command
var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Review time entries",
}

var entryApproveCmd = &cobra.Command{
	Use:   "approve ENTRY_ID",
	Short: "Approve a closed time entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.ApproveEntry(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Approved %s by %s\n", e.ID, e.ApprovedBy)
		return nil
	},
}

var entryDisputeCmd = &cobra.Command{
	Use:   "dispute ENTRY_ID REASON",
	Short: "Dispute a time entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.DisputeEntry(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Disputed %s\n", args[0])
		return nil
	},
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List time entries visible to you",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var p app.EntryParams
		p.As, _ = f.GetString("as")
		p.UserIDs, _ = f.GetStringSlice("user")
		p.StoreIDs, _ = f.GetStringSlice("store")
		p.Status, _ = f.GetString("status")
		p.From, _ = f.GetString("from")
		p.To, _ = f.GetString("to")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ListEntries(cmd.Context(), p)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No time entries.")
			return nil
		}

		loc := a.Location()
		for _, e := range entries {
			out := "--:--"
			if e.ClockOut != nil {
				out = e.ClockOut.In(loc).Format("15:04")
			}
			fmt.Printf("%s  %-12s  %-10s  %s %s-%s  net:%4d  %-9s  %s\n",
				e.ID,
				e.UserID,
				e.StoreID,
				e.ClockIn.In(loc).Format("2006-01-02"),
				e.ClockIn.In(loc).Format("15:04"),
				out,
				e.NetMinutes,
				entryState(e),
				e.Notes,
			)
		}
		return nil
	},
}

func entryState(e *model.TimeEntry) string {
	return string(rota.StateOf(e))
}

func init() {
	clockCmd.AddCommand(clockInCmd)
	clockCmd.AddCommand(clockOutCmd)
	clockInCmd.Flags().String("user", "", "User to clock in (default auth.user_id)")
	clockInCmd.Flags().String("store", "", "Store worked at")
	clockInCmd.Flags().Int("break", 0, "Planned break minutes")
	clockInCmd.Flags().String("notes", "", "Free-text notes")

	breakCmd.AddCommand(breakStartCmd)
	breakCmd.AddCommand(breakEndCmd)

	entryCmd.AddCommand(entryApproveCmd)
	entryCmd.AddCommand(entryDisputeCmd)
	entryCmd.AddCommand(entryListCmd)
	entryListCmd.Flags().String("as", "", "Caller to list as (default auth.user_id)")
	entryListCmd.Flags().StringSlice("user", nil, "Only these users")
	entryListCmd.Flags().StringSlice("store", nil, "Only these stores")
	entryListCmd.Flags().String("status", "", "active, completed or disputed")
	entryListCmd.Flags().String("from", "", "First clock-in date, YYYY-MM-DD")
	entryListCmd.Flags().String("to", "", "Last clock-in date, YYYY-MM-DD")

	rootCmd.AddCommand(clockCmd)
	rootCmd.AddCommand(breakCmd)
	rootCmd.AddCommand(entryCmd)
}
