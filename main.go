package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"

	"github.com/rcmtools/billing-dashboard/internal"
	"github.com/rcmtools/billing-dashboard/internal/logger"
)

type Params struct {
	Source     string `descr:"Claims file or http(s) URL, optionally prefixed with a format (e.g. xlsx:claims.xlsx)" positional:"true" optional:"true"`
	Format     string `descr:"Input format (default: from prefix or file extension)" alts:"csv,xlsx,json" optional:"true"`
	Config     string `descr:"Path to config file (default: ~/.billing-dashboard/config.yaml)" env:"BILLING_DASHBOARD_CONFIG" optional:"true"`
	Output     string `descr:"Output format" alts:"table,json" strict:"true" default:"table"`
	Currency   string `descr:"Currency code for formatting (e.g. INR, USD, EUR; default: from config, else INR)" optional:"true"`
	WindowDays int    `descr:"Trailing window in days (default: from config, else 30)" optional:"true"`
	Now        string `descr:"Evaluate the window as of this date (YYYY-MM-DD) instead of today" optional:"true"`
	Claims     int    `descr:"Number of claims listed in the table output" default:"2"`
	BarWidth   int    `descr:"Width of the payments chart bars in the table output" default:"30"`
	Export     string `descr:"Also write an XLSX report to this path" optional:"true"`
	InitConfig bool   `descr:"Write a config template to the config path and exit" optional:"true"`
	Verbose    bool   `descr:"Debug logging on stderr" optional:"true"`
}

func main() {
	boa.NewCmdT[Params]("billing-dashboard").
		WithShort("Billing KPIs from a claims export").
		WithLong("Loads a claims/payments export (CSV, XLSX or JSON, local or over HTTP), normalizes its columns and reports the gross collection rate, total payments and payments by day over a trailing window.").
		WithRunFunc(func(params *Params) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, params, os.Stdout, os.Stderr); err != nil {
				printError(os.Stderr, err)
				stop()
				os.Exit(1)
			}
		}).
		Run()
}

func run(ctx context.Context, params *Params, stdout, stderr io.Writer) error {
	log := logger.New(stderr, params.Verbose)
	ctx = logger.WithContext(ctx, log)

	configPath := params.Config
	if configPath == "" {
		configPath = internal.DefaultConfigPath()
	}

	if params.InitConfig {
		return initConfig(configPath, stdout)
	}

	if params.Source == "" {
		return errors.New("missing source: pass a file path or URL")
	}

	cfg, err := loadConfig(configPath, params.Config != "")
	if err != nil {
		return err
	}
	log.Debug().Str("config", configPath).Msg("config resolved")

	opts := cfg.AggregateOptions()
	if params.BarWidth < 0 {
		return fmt.Errorf("invalid --bar-width %d: must not be negative", params.BarWidth)
	}
	if params.WindowDays < 0 {
		return fmt.Errorf("invalid --window-days %d: must not be negative", params.WindowDays)
	}
	if params.WindowDays > 0 {
		opts.WindowDays = params.WindowDays
	}

	clock := time.Now
	if params.Now != "" {
		now, err := time.ParseInLocation(internal.DayLayout, params.Now, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --now %q: expected YYYY-MM-DD", params.Now)
		}
		clock = func() time.Time { return now }
	}

	currencyCode := params.Currency
	if currencyCode == "" {
		currencyCode = cfg.CurrencyCode(internal.DefaultCurrency)
	}
	currency := internal.GetCurrency(currencyCode)

	dashboard := internal.NewDashboard(internal.Pipeline{
		Source:  params.Source,
		Format:  params.Format,
		Aliases: cfg.Columns(),
		Options: opts,
		Clock:   clock,
	})
	snap, err := dashboard.Refresh(ctx)
	if err != nil {
		return &loadError{source: params.Source, err: unwrapLoad(err)}
	}

	if params.Export != "" {
		if err := internal.ExportXLSX(params.Export, snap, currency); err != nil {
			return fmt.Errorf("exporting report: %w", err)
		}
		log.Info().Str("path", params.Export).Msg("report written")
	}

	switch strings.ToLower(params.Output) {
	case "json":
		return internal.PrintDashboardJSON(stdout, snap, currency)
	default:
		internal.PrintDashboardTable(stdout, snap, internal.OutputOptions{
			Currency: currency,
			Claims:   params.Claims,
		})
	}
	return nil
}

// loadConfig reads the config file. A missing file is only an error when the
// path was given explicitly.
func loadConfig(path string, explicit bool) (*internal.Config, error) {
	if path == "" {
		return internal.NewDefaultConfig(), nil
	}
	cfg, err := internal.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return internal.NewDefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func initConfig(path string, stdout io.Writer) error {
	if path == "" {
		return errors.New("no config path: pass --config")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := internal.GenerateConfigTemplate().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote config template to %s\n", path)
	return nil
}

// loadError marks failures of the load/parse step
type loadError struct {
	source string
	err    error
}

func (e *loadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.source, e.err)
}

func (e *loadError) Unwrap() error {
	return e.err
}

func printError(w io.Writer, err error) {
	var le *loadError
	if errors.As(err, &le) {
		fmt.Fprintf(w, "Error loading %s: %v\n", le.source, le.err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// unwrapLoad drops the pipeline's own "loading <location>:" prefix so the
// CLI message names the source once
func unwrapLoad(err error) error {
	if u := errors.Unwrap(err); u != nil && strings.HasPrefix(err.Error(), "loading ") {
		return u
	}
	return err
}
