package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mtlprog/slaola/internal/config"
	"github.com/mtlprog/slaola/internal/database"
	"github.com/mtlprog/slaola/internal/domain"
	"github.com/mtlprog/slaola/internal/handler"
	"github.com/mtlprog/slaola/internal/logger"
	"github.com/mtlprog/slaola/internal/repository"
	"github.com/mtlprog/slaola/internal/service"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// newApp builds the command line application.
func newApp() *cli.App {
	return &cli.App{
		Name:  "slaola",
		Usage: "SLA/OLA limits for issues on business calendars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL database URL",
				EnvVars: []string{"DATABASE_URL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
				},
				Action: runServe,
			},
			{
				Name:  "backfill-limits",
				Usage: "Assign limits to all project issues that have none",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Value: config.DefaultBatchSize,
						Usage: "Issues fetched per page",
					},
				},
				Action: runBackfillLimits,
			},
			{
				Name:  "import-policies",
				Usage: "Create policies from a YAML file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to policies.yaml",
						Required: true,
					},
				},
				Action: runImportPolicies,
			},
			{
				Name:  "create-client",
				Usage: "Register an API client and print its token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Client name",
						Required: true,
					},
				},
				Action: runCreateClient,
			},
			{
				Name:  "compute",
				Usage: "Compute a deadline locally (no database)",
				Flags: []cli.Flag{
					&cli.TimestampFlag{
						Name:     "start",
						Usage:    "Start instant (RFC 3339)",
						Layout:   time.RFC3339,
						Required: true,
					},
					&cli.Float64Flag{
						Name:     "hours",
						Usage:    "Duration in hours",
						Required: true,
					},
					&cli.StringFlag{Name: "start-of-day", Usage: "Working day start, HH:MM"},
					&cli.StringFlag{Name: "end-of-day", Usage: "Working day end, HH:MM"},
					&cli.StringFlag{Name: "days", Usage: "Working weekdays, e.g. 1,2,3,4,5 or mon,tue"},
					&cli.StringFlag{Name: "timezone", Usage: "IANA time zone of the calendar"},
					&cli.StringFlag{Name: "calendar", Usage: "Path to a calendar YAML file"},
				},
				Action: runCompute,
			},
		},
		Action: runServe,
	}
}

// openDB connects and migrates the database named by --database-url.
func openDB(c *cli.Context) (*database.DB, error) {
	databaseURL := c.String("database-url")
	if databaseURL == "" {
		return nil, errors.New("database URL is required (--database-url or DATABASE_URL)")
	}

	db, err := database.New(c.Context, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(c.Context, db.Pool()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	h := handler.New(db.Pool())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runBackfillLimits(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pool := db.Pool()
	limits := service.NewLimitService(
		pool,
		repository.NewIssueRepository(pool),
		repository.NewPolicyRepository(pool),
		repository.NewLimitEventRepository(pool),
	)

	result, err := limits.BackfillLimits(ctx, c.Int("batch-size"))
	if err != nil {
		return fmt.Errorf("backfill limits: %w", err)
	}

	return printJSON(c, map[string]int{
		"scanned":  result.Scanned,
		"assigned": result.Assigned,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	})
}

func runImportPolicies(c *cli.Context) error {
	specs, err := config.LoadPolicies(c.String("file"))
	if err != nil {
		return err
	}

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	params := make([]service.CreatePolicyParams, len(specs))
	for i, spec := range specs {
		params[i] = service.CreatePolicyParams{
			ProjectID:          spec.Project,
			Name:               spec.Name,
			Products:           spec.Products,
			SLAHours:           spec.SLAHours.NullDecimal,
			OLAHours:           spec.OLAHours.NullDecimal,
			BusinessHoursStart: spec.Calendar.StartOfDay,
			BusinessHoursEnd:   spec.Calendar.EndOfDay,
			BusinessDays:       string(spec.Calendar.Days),
			Timezone:           spec.Calendar.Timezone,
		}
	}

	policies := service.NewPolicyService(db.Pool(), repository.NewPolicyRepository(db.Pool()))
	created, err := policies.ImportPolicies(c.Context, params)
	if err != nil {
		return fmt.Errorf("import policies: %w", err)
	}

	slog.Info("import finished", "file", c.String("file"), "created", created)
	return nil
}

func runCreateClient(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := repository.NewClientRepository(db.Pool()).Create(c.Context, c.String("name"), uuid.NewString())
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	slog.Info("client created", "client_id", client.ID, "name", client.Name)

	return printJSON(c, map[string]string{
		"id":    client.ID,
		"name":  client.Name,
		"token": client.Token,
	})
}

func runCompute(c *cli.Context) error {
	start := c.Timestamp("start")
	if start == nil {
		return errors.New("--start is required")
	}
	hours := c.Float64("hours")

	if err := service.ValidateDuration(decimal.NewNullDecimal(decimal.NewFromFloat(hours))); err != nil {
		return err
	}

	spec := config.CalendarSpec{
		StartOfDay: c.String("start-of-day"),
		EndOfDay:   c.String("end-of-day"),
		Days:       config.Weekdays(c.String("days")),
		Timezone:   c.String("timezone"),
	}
	if path := c.String("calendar"); path != "" {
		loaded, err := config.LoadCalendar(path)
		if err != nil {
			return err
		}
		spec = loaded
	}

	var cal *domain.BusinessCalendar
	if !spec.IsZero() {
		built, err := spec.Build()
		if err != nil {
			slog.Warn("calendar ignored", "error", err)
		} else {
			cal = built
		}
	}

	result := service.ComputeDeadlineResult(*start, hours, cal)

	return printJSON(c, map[string]any{
		"deadline":         result.Deadline.Format(time.RFC3339Nano),
		"calendar_applied": result.CalendarApplied,
	})
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
