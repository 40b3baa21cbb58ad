// cmd/sitectl/commands.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/app/bootstrap"
	pagestore "github.com/dalemusser/stratasite/internal/app/store/pages"
	settingsstore "github.com/dalemusser/stratasite/internal/app/store/settings"
	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/notify"
	"github.com/dalemusser/stratasite/internal/app/system/seeding"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWorkerCmd() *cobra.Command {
	var concurrency int
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued notification email",
		Long:  "Runs the asynq server that sends the email enqueued when notify_mode is \"queue\".",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.close(context.Background())

			if e.app.RedisAddr == "" {
				return errors.New("worker requires redis_addr")
			}

			server := asynq.NewServer(bootstrap.RedisClientOpt(e.app), asynq.Config{
				Concurrency: concurrency,
				Logger:      e.logger.Sugar(),
			})
			mux := asynq.NewServeMux()
			mux.Use(metrics.AsynqMiddleware())
			mux.Handle(notify.TypeEmailSend, notify.Handler(e.deps.Mailer, e.logger))

			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						e.logger.Error("metrics listener stopped", zap.Error(err))
					}
				}()
				defer srv.Close()
			}

			if err := server.Start(mux); err != nil {
				return fmt.Errorf("start worker: %w", err)
			}
			e.logger.Info("worker started",
				zap.String("redis_addr", e.app.RedisAddr),
				zap.Int("concurrency", concurrency))

			<-ctx.Done()
			server.Shutdown()
			e.logger.Info("worker stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of concurrent deliveries")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9091)")
	return cmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the reference integrity sweep once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.close(context.Background())

			report, err := bootstrap.NewSweeper(e.deps, e.logger).Sweep(ctx)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dangling references: %d\norphaned blobs: %d\nresolved: %d\n",
				report.Dangling, report.Orphans, report.Resolved)
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create collections, indexes, and default content",
		Long:  "Ensures validators and indexes, then seeds site settings and the default pages into an empty database. Existing documents are left alone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.close(context.Background())

			if err := bootstrap.EnsureSchema(ctx, e.core, e.app, e.deps, e.logger); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			return reportPages(ctx, cmd.OutOrStdout(), pagestore.New(e.deps.MongoDatabase))
		},
	}
}

func newMigrateIconsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-icons",
		Short: "Store legacy hex social icons as media references",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.close(context.Background())

			n, err := settingsstore.New(e.deps.MongoDatabase).MigrateIcons(ctx)
			if err != nil {
				return fmt.Errorf("migrate icons: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d icon(s)\n", n)
			return nil
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for admin_password_hash",
		Long:  "Hashes the password given as an argument, or the first line of stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = line
			}
			if password == "" {
				return errors.New("password is empty")
			}
			hash, err := adminauth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// reportPages prints the page inventory after a seed and fails when a
// default page is still absent.
func reportPages(ctx context.Context, w io.Writer, pages *pagestore.Store) error {
	all, err := pages.List(ctx, false)
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}
	published, err := pages.List(ctx, true)
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}
	fmt.Fprintf(w, "schema and seed data ensured: %d page(s), %d published\n", len(all), len(published))

	var want []string
	for _, p := range seeding.DefaultPages() {
		want = append(want, p.Slug)
	}
	missing, err := pages.MissingSlugs(ctx, want)
	if err != nil {
		return fmt.Errorf("check default pages: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("default pages missing after seed: %s", strings.Join(missing, ", "))
	}
	return nil
}
