// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/researchd"
	"github.com/poiesic/researchd/core"
	"github.com/poiesic/researchd/pipeline"
	"github.com/poiesic/researchd/query"
	"github.com/poiesic/researchd/review"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "researchd",
		Usage: "Research pipeline orchestrator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the pipeline daemon with the status/report API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "stage",
						Aliases:  []string{"s"},
						Usage:    "Pipeline stage as name[:dep1+dep2]=command (repeatable; append ! to the name for idempotent stages)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Address for the HTTP API",
						Value: ":8080",
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "How often to scan for PENDING tasks",
						Value: 10 * time.Second,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for task and stage execution",
					},
					&cli.DurationFlag{
						Name:  "stage-timeout",
						Usage: "Default per-invocation stage timeout",
						Value: pipeline.DefaultStageTimeout,
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Default total attempts per stage",
						Value: pipeline.DefaultMaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Default delay between stage attempts",
						Value: pipeline.DefaultRetryDelay,
					},
				},
			},
			{
				Name:      "submit",
				Usage:     "Submit a research task",
				ArgsUsage: "<query>",
				Action:    submitCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:    "param",
						Aliases: []string{"p"},
						Usage:   "Task parameter as key=value (repeatable)",
					},
				},
			},
			{
				Name:      "status",
				Usage:     "List tasks, or show one task's full history",
				ArgsUsage: "[taskId]",
				Action:    statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Comma-separated status filter (e.g. pending,failed)",
					},
				},
			},
			{
				Name:      "report",
				Usage:     "Print a task's report",
				ArgsUsage: "<taskId>",
				Action:    reportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	g, err := buildGraph(c.StringSlice("stage"))
	if err != nil {
		return fmt.Errorf("invalid pipeline: %w", err)
	}

	db, err := researchd.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	executorOpts := []pipeline.Option{
		pipeline.WithStageTimeout(c.Duration("stage-timeout")),
		pipeline.WithRetryPolicy(pipeline.RetryPolicy{
			MaxAttempts: c.Int("max-attempts"),
			Delay:       c.Duration("retry-delay"),
		}),
	}
	if size := c.Int("pool-size"); size > 0 {
		executorOpts = append(executorOpts, pipeline.WithPoolSize(size))
	}
	executor, err := db.NewExecutor(executorOpts...)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}
	defer executor.Release()

	queryService, err := db.NewQueryService()
	if err != nil {
		return err
	}
	reviewService, err := db.NewReviewService()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	query.NewServer(queryService, slog.Default()).Register(mux)
	review.NewServer(reviewService, slog.Default()).Register(mux)

	server := &http.Server{Addr: c.String("listen"), Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api listening", "addr", server.Addr)
		if serveErr := server.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	go pollPending(ctx, executor, g, c.Duration("poll-interval"))

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err = <-errCh:
		slog.Error("api server failed", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

// pollPending drives the executor over PENDING tasks until ctx ends.
func pollPending(ctx context.Context, executor *pipeline.Executor, g *pipeline.Graph, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := executor.RunPending(ctx, g)
			if err != nil {
				slog.Error("pending scan failed", "err", err)
				continue
			}
			if count > 0 {
				slog.Info("picked up pending tasks", "count", count)
			}
		}
	}
}

func submitCommand(c *cli.Context) error {
	queryText := strings.TrimSpace(c.Args().First())
	if queryText == "" {
		return fmt.Errorf("query is required")
	}

	parameters := make(map[string]string)
	for _, raw := range c.StringSlice("param") {
		key, value, found := strings.Cut(raw, "=")
		if !found || strings.TrimSpace(key) == "" {
			return fmt.Errorf("param %q: expected key=value", raw)
		}
		parameters[strings.TrimSpace(key)] = value
	}

	db, err := researchd.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	task, err := db.TaskRepository().CreateTask(context.Background(), queryText, parameters)
	if err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}

	fmt.Println(task.Id)
	return nil
}

func statusCommand(c *cli.Context) error {
	db, err := researchd.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service, err := db.NewQueryService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if id := strings.TrimSpace(c.Args().First()); id != "" {
		task, err := service.GetTask(ctx, core.TaskID(id))
		if err != nil {
			return err
		}
		fmt.Printf("Task:    %s\n", task.Id)
		fmt.Printf("Query:   %s\n", task.Query)
		fmt.Printf("Status:  %s\n", task.Status)
		fmt.Printf("Created: %s\n", task.CreatedAt.Format(time.RFC3339))
		fmt.Printf("Updated: %s\n", task.UpdatedAt.Format(time.RFC3339))
		if len(task.Attempts) > 0 {
			fmt.Println("Attempts:")
			for _, a := range task.Attempts {
				line := fmt.Sprintf("  %-20s #%d %-8s %s", a.Stage, a.Attempt, a.Outcome, a.FinishedAt.Format(time.RFC3339))
				if a.ErrorDetail != "" {
					line += "  " + a.ErrorDetail
				}
				fmt.Println(line)
			}
		}
		return nil
	}

	var statusNames []string
	if raw := strings.TrimSpace(c.String("status")); raw != "" {
		statusNames = strings.Split(raw, ",")
	}
	summaries, err := service.ListTasks(ctx, statusNames...)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		fmt.Printf("%s  %-14s  %-3d attempts  %s\n", s.Id, s.Status, s.Attempts, s.Query)
	}
	return nil
}

func reportCommand(c *cli.Context) error {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return fmt.Errorf("task id is required")
	}

	db, err := researchd.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service, err := db.NewQueryService()
	if err != nil {
		return err
	}

	report, err := service.GetReport(context.Background(), core.TaskID(id))
	if err != nil {
		return err
	}
	fmt.Println(report)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
