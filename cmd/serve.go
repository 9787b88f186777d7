package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/treasury-audit/internal/config"
	"github.com/sells-group/treasury-audit/internal/model"
	"github.com/sells-group/treasury-audit/internal/reconcile"
	"github.com/sells-group/treasury-audit/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for audit requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		rec, err := initReconciler()
		if err != nil {
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

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /summary", func(w http.ResponseWriter, r *http.Request) {
			records, err := st.LatestRecords(r.Context())
			if err != nil {
				http.Error(w, `{"error":"store unavailable"}`, http.StatusInternalServerError)
				return
			}
			statuses := sweepRecords(records, stalenessPolicy(cfg.Audit), time.Now().UTC())
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(statuses)
		})

		mux.HandleFunc("POST /webhook/audit", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Ticker string `json:"ticker"`
			}
			if r.ContentLength > 0 {
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
					return
				}
			}

			companies, err := config.LoadCompanies(cfg.Companies.Path)
			if err != nil {
				http.Error(w, `{"error":"companies file unreadable"}`, http.StatusInternalServerError)
				return
			}
			if req.Ticker != "" {
				companies = filterTicker(companies, req.Ticker)
				if len(companies) == 0 {
					http.Error(w, `{"error":"unknown ticker"}`, http.StatusNotFound)
					return
				}
			}

			run, err := st.CreateRun(r.Context())
			if err != nil {
				http.Error(w, `{"error":"store unavailable"}`, http.StatusInternalServerError)
				return
			}

			// The audit runs on the server context so an in-flight run
			// survives the request but not a shutdown.
			go runWebhookAudit(ctx, rec, st, run.ID, companies)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "accepted",
				"run_id": run.ID,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func runWebhookAudit(ctx context.Context, rec *reconcile.Reconciler, st store.Store, runID string, companies []model.Company) {
	log := zap.L().With(zap.String("run_id", runID))

	if err := st.UpdateRunStatus(ctx, runID, model.RunStatusRunning); err != nil {
		log.Error("webhook audit status update failed", zap.Error(err))
		return
	}

	rr, err := rec.RunWithID(ctx, runID, companies)
	if err != nil {
		log.Error("webhook audit failed", zap.Error(err))
		if ferr := st.FailRun(ctx, runID, err.Error()); ferr != nil {
			log.Error("failed to mark run failed", zap.Error(ferr))
		}
		return
	}

	if err := persistRun(ctx, st, rr); err != nil {
		log.Error("webhook audit persist failed", zap.Error(err))
		return
	}
	log.Info("webhook audit complete",
		zap.Int("companies", rr.Summary.Companies),
		zap.Int("fields", rr.Summary.Counts.Total()),
	)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
