package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/guildmetrics/internal/config"
	"github.com/dwsmith1983/guildmetrics/internal/heartbeat"
	"github.com/dwsmith1983/guildmetrics/internal/host/discord"
	"github.com/dwsmith1983/guildmetrics/internal/metrics"
	"github.com/dwsmith1983/guildmetrics/internal/recalibrator"
	"github.com/dwsmith1983/guildmetrics/internal/reconciler"
	"github.com/dwsmith1983/guildmetrics/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and serve guild metrics for Prometheus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the configuration file")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)
	prom := cfg.Plugins.Prometheus

	// Registry and endpoint. The port is bound before the gateway session
	// opens so scrapes never see a closed port.
	reg := metrics.New()
	srv := server.New(fmt.Sprintf(":%d", prom.ExporterPort), reg, logger)
	ln, err := srv.Listen()
	if err != nil {
		return fmt.Errorf("binding exporter port %d: %w", prom.ExporterPort, err)
	}

	// Gateway session
	sess, err := discord.New(cfg.Discord.Token, seconds(cfg.Discord.GuildReadyTimeout), logger)
	if err != nil {
		_ = ln.Close()
		return err
	}

	// Event handling
	debCfg := reconciler.DefaultDebounceConfig()
	debCfg.Grace = seconds(prom.ReactionGrace)
	if prom.ReactionGrace == 0 {
		// Zero in the config means re-check at once; zero in DebounceConfig
		// means the default.
		debCfg.Grace = -1
	}
	deb := reconciler.NewDebouncer(sess, reg, debCfg, logger)
	rec := reconciler.New(sess, reg, deb, logger)

	// Background loops
	recal := recalibrator.New(sess, reg, seconds(prom.RecalibrationInterval), logger)
	hb := heartbeat.New(sess, reg, seconds(prom.PollingInterval), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil {
			return fmt.Errorf("exporter endpoint: %w", err)
		}
		return nil
	})
	color.Green("Exporter listening on %s", ln.Addr())

	if err := sess.Open(gctx, rec); err != nil {
		_ = srv.Stop(context.Background())
		_ = g.Wait()
		return fmt.Errorf("connecting to Discord: %w", err)
	}
	recal.Start(gctx)
	hb.Start(gctx)
	color.Green("Connected to Discord gateway")

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			color.Yellow("\nReceived signal, shutting down...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		hb.Stop(shutdownCtx)
		recal.Stop(shutdownCtx)
		if err := deb.Wait(shutdownCtx); err != nil {
			logger.Warn("abandoning reaction checks", "inFlight", deb.InFlight(), "error", err)
		}
		if err := sess.Close(); err != nil {
			logger.Warn("closing gateway session", "error", err)
		}
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	color.Green("Exporter stopped gracefully")
	return nil
}
