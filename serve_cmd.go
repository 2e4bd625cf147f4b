package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prosodify/prosodify/internal/azure"
	"github.com/prosodify/prosodify/internal/config"
	"github.com/prosodify/prosodify/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the voices API from Azure Speech",
		Long: paragraph(fmt.Sprintf("\nServe %s and %s from the Azure Speech voices list. Credentials come from AZURE_SPEECH_KEY and AZURE_SPEECH_REGION.",
			keyword("/api/voices"), keyword("/api/voice-styles"))),
		Example: paragraph("prosodify serve\nprosodify serve --addr :8080"),
		Args:    cobra.NoArgs,
		RunE:    runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "prosodify",
		Level:           log.GetLevel(),
	})

	if logger.GetLevel() > log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	client := azure.NewClient(cfg.Server.Azure.Region, cfg.Server.Azure.Key)
	if !client.Configured() {
		logger.Warn("Azure Speech credentials missing, /api/voices will fail until they are set")
	}

	srv := server.New(server.Config{
		Addr:     cfg.Server.Addr,
		Filter:   cfg.Filter(),
		CacheTTL: cfg.Server.CacheTTL,
	}, client, logger.WithPrefix("server"))

	if viper.ConfigFileUsed() != "" {
		config.Watch(viper.GetViper(), logger.WithPrefix("config"), func(config.Config) {
			srv.Invalidate()
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("unable to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("unable to shut down: %w", err)
	}
	return <-errc
}
