package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksheet/pkg/config"
	"github.com/harrisonrobin/tasksheet/pkg/google"
	"github.com/harrisonrobin/tasksheet/pkg/journal"
	"github.com/harrisonrobin/tasksheet/pkg/rollover"
	"github.com/harrisonrobin/tasksheet/pkg/trigger"
	"github.com/harrisonrobin/tasksheet/pkg/xlsx"
)

var (
	flagBackend     string
	flagSpreadsheet string
	flagXLSX        string
	flagConfig      string
)

var rootCmd = &cobra.Command{
	Use:           "tasksheet",
	Short:         "Daily rollover and sorting for a spreadsheet task tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("tasksheet: ")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("Error: %v", err)
		cancel()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default ~/.config/tasksheet/config.yaml)")
	pf.StringVar(&flagBackend, "backend", "", "spreadsheet host: google or xlsx (overrides config)")
	pf.StringVar(&flagSpreadsheet, "spreadsheet", "", "Google spreadsheet id (overrides config)")
	pf.StringVar(&flagXLSX, "xlsx", "", "path to a local .xlsx workbook (overrides config)")

	rootCmd.AddCommand(authCmd, configCmd, rolloverCmd, sortCmd, sheetsCmd, onEditCmd, dropdownsCmd, fitCmd, watchCmd, daemonCmd)
}

func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.GetConfigPath()
}

// loadConfig applies flag overrides on top of the config file (Priority: Flag > Env > Config > Default).
func loadConfig() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if flagBackend != "" {
		cfg.Backend = flagBackend
	}
	if flagSpreadsheet != "" {
		cfg.SpreadsheetID = flagSpreadsheet
		if flagBackend == "" {
			cfg.Backend = config.BackendGoogle
		}
	}
	if flagXLSX != "" {
		cfg.XLSXPath = flagXLSX
		if flagBackend == "" {
			cfg.Backend = config.BackendXLSX
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runner is what every command drives: a rollover.Automation for Google,
// or an xlsx.Runner that reopens the file per invocation.
type runner interface {
	trigger.Runner
	ApplyDropdowns(ctx context.Context, name string) error
	AutoFitColumns(ctx context.Context, name string) error
}

type sheetLister interface {
	SheetNames(ctx context.Context) ([]string, error)
}

type app struct {
	cfg        *config.Config
	log        *log.Logger
	runner     runner
	sheets     sheetLister
	xlsx       *xlsx.Runner
	dispatcher *trigger.Dispatcher
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.LoadLocation()
	if err != nil {
		return nil, err
	}
	logger := log.Default()
	opts := rollover.Options{TitleLayout: cfg.TitleLayout, Location: loc}

	a := &app{cfg: cfg, log: logger}
	switch cfg.Backend {
	case config.BackendGoogle:
		client, err := google.NewClient(ctx, cfg.SpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("error creating Google Sheets client: %w", err)
		}
		a.runner = rollover.New(client, logger, opts)
		a.sheets = client
	case config.BackendXLSX:
		j, err := journal.New()
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		a.xlsx = &xlsx.Runner{Path: cfg.XLSXPath, Journal: j, Log: logger, Options: opts}
		a.runner = a.xlsx
		a.sheets = a.xlsx
	}
	a.dispatcher = trigger.NewDispatcher(a.runner, logger, cfg.EditMarker)
	return a, nil
}
