package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/pipeline"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/serviceutil"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/slotstore"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/telemetry"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/timezone"
)

var (
	servePort     int
	serveSchedule string
	serveDays     int
	serveTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8340, "port for the read api")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "15 5,11,17 * * *", "cron schedule for ingestion runs")
	serveCmd.Flags().IntVar(&serveDays, "days", 7, "days of availability per scheduled run")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 10*time.Minute, "bound on each run's adapter phase")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read api and run scheduled ingestion passes.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		telemetry.InstrumentPerfStats(ctx)

		reg, err := loadRegistry()
		if err != nil {
			serviceutil.Fatal("failed to load registry", err)
		}
		store, err := openStore()
		if err != nil {
			serviceutil.Fatal("failed to open store", err)
		}
		defer store.Close()

		fleet, err := buildFleet(reg, store, nil)
		if err != nil {
			serviceutil.Fatal("failed to build source fleet", err)
		}
		orchestrator := pipeline.New(store)

		// overlapping runs would race on the watermark; SkipIfStillRunning
		// drops a tick rather than queueing it
		scheduler := cron.New(
			cron.WithLocation(timezone.Location),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		)
		_, err = scheduler.AddFunc(serveSchedule, func() {
			summary, err := orchestrator.Run(ctx, pipeline.Options{
				Adapters: fleet,
				Courses:  reg.Courses,
				Dates:    timezone.DateRange(timezone.Now(), serveDays),
				Timeout:  serveTimeout,
			})
			if err != nil {
				slog.Error("scheduled run failed", "err", err)
				return
			}
			slog.Info("scheduled run finished",
				"run_id", summary.RunID, "state", summary.State, "succeeded", summary.Succeeded())
		})
		if err != nil {
			serviceutil.Fatal("invalid cron schedule", err)
		}
		scheduler.Start()
		defer scheduler.Stop()

		router := chi.NewRouter()
		router.Use(middleware.RequestID)
		router.Use(middleware.Recoverer)
		router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		router.Get("/api/teetimes", handleTeetimes(store))
		router.Get("/api/runs/last", handleLastRun(store))

		server := &http.Server{
			Addr:    fmt.Sprintf("0.0.0.0:%d", servePort),
			Handler: router,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()

		slog.Info("serving read api", "port", servePort, "schedule", serveSchedule)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serviceutil.Fatal("http server failed", err)
		}
	},
}

func handleTeetimes(store slotstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := slotstore.Filter{
			Date:     query.Get("date"),
			CourseID: query.Get("course"),
			Source:   query.Get("source"),
			TimeFrom: query.Get("from"),
			TimeTo:   query.Get("to"),
			Cheapest: query.Get("cheapest") == "true",
		}
		if filter.Date == "" {
			filter.Date = timezone.Today()
		}
		if raw := query.Get("max_price"); raw != "" {
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				http.Error(w, "invalid max_price", http.StatusBadRequest)
				return
			}
			filter.MaxPrice = price
		}
		if raw := query.Get("players"); raw != "" {
			players, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "invalid players", http.StatusBadRequest)
				return
			}
			filter.Players = players
		}
		if raw := query.Get("holes"); raw != "" {
			holes, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "invalid holes", http.StatusBadRequest)
				return
			}
			filter.Holes = holes
		}

		slots, err := store.Query(r.Context(), filter)
		if err != nil {
			slog.Error("teetimes query failed", "err", err)
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"date": filter.Date, "teetimes": slots})
	}
}

func handleLastRun(store slotstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcomes, err := store.LastOutcomes(r.Context())
		if err != nil {
			slog.Error("last-run query failed", "err", err)
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"sources": outcomes})
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}
