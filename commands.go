package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksheet/pkg/auth"
	"github.com/harrisonrobin/tasksheet/pkg/config"
	"github.com/harrisonrobin/tasksheet/pkg/schedule"
	"github.com/harrisonrobin/tasksheet/pkg/trigger"
	"github.com/harrisonrobin/tasksheet/pkg/watch"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Google Sheets, replacing any cached token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.Reset(); err != nil {
			return err
		}
		if _, err := auth.GetSheetsService(cmd.Context()); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		log.Printf("Authentication successful! Token saved to %s", auth.TokenFile)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the configuration",
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Persist a configuration value",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := config.Save(path, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s set to: %s\n", args[0], args[1])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		fmt.Printf("config file:    %s\n", path)
		fmt.Printf("backend:        %s\n", cfg.Backend)
		fmt.Printf("spreadsheet_id: %s\n", cfg.SpreadsheetID)
		fmt.Printf("xlsx_path:      %s\n", cfg.XLSXPath)
		fmt.Printf("timezone:       %s\n", cfg.Timezone)
		fmt.Printf("title_layout:   %s\n", cfg.TitleLayout)
		fmt.Printf("edit_marker:    %s\n", cfg.EditMarker)
		fmt.Printf("rollover_at:    %s\n", cfg.RolloverAt)
		return nil
	},
}

var rolloverDate string

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Create today's sheet from yesterday's, carrying unfinished tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		now := time.Now()
		if rolloverDate != "" {
			loc, _ := a.cfg.LoadLocation()
			now, err = time.ParseInLocation("2006-01-02", rolloverDate, loc)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", rolloverDate, err)
			}
		}
		a.dispatcher.Daily(cmd.Context(), now)
		return nil
	},
}

var sortCmd = &cobra.Command{
	Use:   "sort <sheet>",
	Short: "Sort a sheet by category, priority and status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return a.runner.SortSheet(cmd.Context(), args[0])
	},
}

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List the sheets of the workbook; * marks those re-sorted on manual edits",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		names, err := a.sheets.SheetNames(cmd.Context())
		if err != nil {
			return fmt.Errorf("unable to list sheets: %w", err)
		}
		for _, line := range a.sheetListing(names) {
			fmt.Println(line)
		}
		return nil
	},
}

func (a *app) sheetListing(names []string) []string {
	lines := make([]string, len(names))
	for i, name := range names {
		mark := " "
		if a.dispatcher.IsTaskSheet(name) {
			mark = "*"
		}
		lines[i] = mark + " " + name
	}
	return lines
}

var (
	onEditSheet  string
	onEditOrigin string
)

var onEditCmd = &cobra.Command{
	Use:   "on-edit",
	Short: "Handle an edit event: re-sort the sheet if a person edited a task sheet",
	Long: `Handle an edit event: re-sort the sheet if a person edited a task sheet.

--origin is "human" or "automation". With the xlsx backend it may be left
as "auto" to decide from the fingerprint of the last automation write, and
--sheet defaults to the workbook's active sheet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		ev, err := a.editEvent(onEditSheet, onEditOrigin)
		if err != nil {
			return err
		}
		a.dispatcher.Edit(cmd.Context(), ev)
		return nil
	},
}

func (a *app) editEvent(sheetName, origin string) (trigger.EditEvent, error) {
	ev := trigger.EditEvent{Sheet: sheetName}
	if a.xlsx == nil {
		if sheetName == "" {
			return ev, errors.New("--sheet is required for the google backend")
		}
		o, ok := trigger.ParseOrigin(origin)
		if !ok {
			return ev, fmt.Errorf("invalid --origin %q, want human or automation", origin)
		}
		ev.Origin = o
		return ev, nil
	}

	if sheetName == "" {
		active, err := a.xlsx.ActiveSheet()
		if err != nil {
			return ev, err
		}
		ev.Sheet = active
	}
	if strings.EqualFold(origin, "auto") {
		self, err := a.xlsx.Journal.SelfWritten(a.xlsx.Path)
		if err != nil {
			return ev, err
		}
		if self {
			ev.Origin = trigger.Automation
		}
		return ev, nil
	}
	o, ok := trigger.ParseOrigin(origin)
	if !ok {
		return ev, fmt.Errorf("invalid --origin %q, want human, automation or auto", origin)
	}
	ev.Origin = o
	return ev, nil
}

var dropdownsCmd = &cobra.Command{
	Use:   "dropdowns <sheet>",
	Short: "Reapply the category, priority and status dropdowns to a sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return a.runner.ApplyDropdowns(cmd.Context(), args[0])
	},
}

var fitCmd = &cobra.Command{
	Use:   "fit <sheet>",
	Short: "Resize the columns of a sheet to their content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		return a.runner.AutoFitColumns(cmd.Context(), args[0])
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-sort the active task sheet whenever the local workbook is edited",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if a.xlsx == nil {
			return errors.New("watch needs the xlsx backend; Google edits arrive through on-edit")
		}
		return a.watcher().Run(cmd.Context())
	},
}

func (a *app) watcher() *watch.Watcher {
	return watch.New(a.xlsx.Path, a.xlsx.Journal, func(ctx context.Context, path string, origin trigger.Origin) error {
		name, err := a.xlsx.ActiveSheet()
		if err != nil {
			return err
		}
		a.dispatcher.Edit(ctx, trigger.EditEvent{Sheet: name, Origin: origin})
		return nil
	}, a.log)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the daily rollover on schedule, and watch the workbook for edits (xlsx)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		loc, err := a.cfg.LoadLocation()
		if err != nil {
			return err
		}
		hour, minute, err := a.cfg.RolloverClock()
		if err != nil {
			return err
		}

		// Catch up when started after today's rollover time was missed.
		a.dispatcher.Daily(ctx, time.Now())

		var wg sync.WaitGroup
		var watchErr error
		if a.xlsx != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				watchErr = a.watcher().Run(ctx)
			}()
		}

		a.log.Printf("Next rollover at %s", schedule.NextAt(time.Now(), hour, minute, loc).Format(time.RFC1123))
		schedule.Run(ctx, hour, minute, loc, func(now time.Time) {
			a.dispatcher.Daily(ctx, now)
		})
		wg.Wait()
		return watchErr
	},
}

func init() {
	configCmd.AddCommand(configSetCmd, configShowCmd)
	rolloverCmd.Flags().StringVar(&rolloverDate, "date", "", "roll over into this day (YYYY-MM-DD) instead of today")
	onEditCmd.Flags().StringVar(&onEditSheet, "sheet", "", "name of the edited sheet")
	onEditCmd.Flags().StringVar(&onEditOrigin, "origin", "human", "who made the edit: human, automation, or auto (xlsx)")
}
