package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/treasury-audit/internal/config"
	"github.com/sells-group/treasury-audit/internal/model"
	"github.com/sells-group/treasury-audit/internal/report"
	"github.com/sells-group/treasury-audit/internal/store"
)

var (
	auditCompaniesPath string
	auditTicker        string
	auditJSON          bool
	auditOut           string
	auditSave          bool
	auditHealthPath    string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run a reconciliation pass over the configured companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("audit"); err != nil {
			return err
		}

		path := auditCompaniesPath
		if path == "" {
			path = cfg.Companies.Path
		}
		companies, err := config.LoadCompanies(path)
		if err != nil {
			return err
		}
		if auditTicker != "" {
			companies = filterTicker(companies, auditTicker)
			if len(companies) == 0 {
				return eris.Errorf("ticker %s not in %s", auditTicker, path)
			}
		}

		rec, err := initReconciler()
		if err != nil {
			return err
		}

		var st store.Store
		var run *model.Run
		if auditSave {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			run, err = st.CreateRun(ctx)
			if err != nil {
				return err
			}
			if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
				return err
			}
		}

		var rr *model.RunReport
		if run != nil {
			rr, err = rec.RunWithID(ctx, run.ID, companies)
		} else {
			rr, err = rec.RunAll(ctx, companies)
		}
		if err != nil {
			if st != nil && run != nil {
				if ferr := st.FailRun(ctx, run.ID, err.Error()); ferr != nil {
					zap.L().Warn("failed to mark run failed", zap.Error(ferr))
				}
			}
			return err
		}

		if st != nil {
			if err := persistRun(ctx, st, rr); err != nil {
				return err
			}
		}

		if auditHealthPath != "" {
			if err := writeHealth(auditHealthPath, rr); err != nil {
				return err
			}
		}

		out := os.Stdout
		if auditOut != "" {
			f, err := os.Create(auditOut)
			if err != nil {
				return eris.Wrapf(err, "create output file %s", auditOut)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		if auditJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rr)
		}
		_, err = fmt.Fprint(out, report.FormatMarkdown(rr))
		return err
	},
}

// persistRun writes the report summary and the per-field verification log.
// Changes against the previous log are reported before the new records land,
// so a moved holdings or shares figure shows up in the run output even when
// the new value still matches the configured one.
func persistRun(ctx context.Context, st store.Store, rr *model.RunReport) error {
	prev, err := st.LatestRecords(ctx)
	if err != nil {
		return err
	}
	var curr []model.FieldRecord
	for _, cr := range rr.Companies {
		curr = append(curr, cr.Records...)
	}
	for _, ch := range report.Changes(prev, curr) {
		zap.L().Info("extracted value changed since last run",
			zap.String("ticker", ch.Ticker),
			zap.String("kind", string(ch.Kind)),
			zap.String("source", ch.Source),
			zap.Float64("from", ch.From.Number),
			zap.Float64("to", ch.To.Number))
	}

	for _, cr := range rr.Companies {
		if err := st.LogRecords(ctx, rr.Summary.RunID, cr.Records); err != nil {
			return err
		}
	}
	return st.CompleteRun(ctx, rr.Summary.RunID, &rr.Summary)
}

// writeHealth writes the dashboard health summary next to the report.
func writeHealth(path string, rr *model.RunReport) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create health summary %s", path)
	}
	defer f.Close() //nolint:errcheck
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report.Health(rr)); err != nil {
		return eris.Wrap(err, "encode health summary")
	}
	return nil
}

func filterTicker(companies []model.Company, ticker string) []model.Company {
	var out []model.Company
	for _, c := range companies {
		if c.Ticker == ticker {
			out = append(out, c)
		}
	}
	return out
}

func init() {
	auditCmd.Flags().StringVar(&auditCompaniesPath, "companies", "", "companies file (default from config)")
	auditCmd.Flags().StringVar(&auditTicker, "ticker", "", "audit a single ticker")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "emit the full report as JSON instead of markdown")
	auditCmd.Flags().StringVar(&auditOut, "out", "", "write the report to a file instead of stdout")
	auditCmd.Flags().BoolVar(&auditSave, "save", false, "persist the run and verification log to the store")
	auditCmd.Flags().StringVar(&auditHealthPath, "health", "", "also write a JSON health summary to this path")
	rootCmd.AddCommand(auditCmd)
}
