package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/treasury-audit/internal/model"
	"github.com/sells-group/treasury-audit/internal/staleness"
)

var statusJSON bool

// fieldStatus is one row of the staleness sweep: the last known verdict
// for a field with its age recomputed against the current time.
type fieldStatus struct {
	Ticker    string           `json:"ticker"`
	Kind      model.MetricKind `json:"kind"`
	Verdict   model.Verdict    `json:"verdict"`
	Source    string           `json:"source,omitempty"`
	AsOf      *time.Time       `json:"as_of,omitempty"`
	AgeDays   int              `json:"age_days"`
	Freshness model.Freshness  `json:"freshness"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Sweep the verification log for stale or unverified fields",
	Long:  "Reads the latest persisted verification per field and re-evaluates staleness against the current time. No sources are fetched.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("status"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		records, err := st.LatestRecords(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No verifications recorded. Run `treasury-audit audit --save` first.")
			return nil
		}

		statuses := sweepRecords(records, stalenessPolicy(cfg.Audit), time.Now().UTC())

		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(statuses)
		}
		formatStatus(os.Stdout, statuses)
		return nil
	},
}

// sweepRecords recomputes the freshness of each field's last verification.
// The stored age is discarded; as-of dates age between runs.
func sweepRecords(records []model.FieldRecord, policy staleness.Policy, now time.Time) []fieldStatus {
	out := make([]fieldStatus, 0, len(records))
	for _, rec := range records {
		s := fieldStatus{
			Ticker:  rec.Ticker,
			Kind:    rec.Kind,
			Verdict: rec.Verdict,
		}
		if rec.Extracted != nil {
			s.Source = rec.Extracted.Source
			asOf := rec.Extracted.AsOf
			s.AsOf = &asOf
			flag := staleness.Evaluate(asOf, now, policy.MaxAge(rec.Kind))
			s.AgeDays = flag.AgeDays
			s.Freshness = flag.Status
		} else {
			// Unverifiable fields have no as-of date to age.
			s.Freshness = model.FreshnessStale
		}
		out = append(out, s)
	}
	return out
}

func formatStatus(out io.Writer, statuses []fieldStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TICKER\tFIELD\tVERDICT\tSOURCE\tAS OF\tAGE\tFRESHNESS")
	_, _ = fmt.Fprintln(w, "------\t-----\t-------\t------\t-----\t---\t---------")

	for _, s := range statuses {
		asOf := "-"
		age := "-"
		if s.AsOf != nil && !s.AsOf.IsZero() {
			asOf = s.AsOf.Format("2006-01-02")
			age = fmt.Sprintf("%dd", s.AgeDays)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Ticker, s.Kind, s.Verdict, s.Source, asOf, age, s.Freshness)
	}
	_ = w.Flush()
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit the sweep as JSON")
	rootCmd.AddCommand(statusCmd)
}
