package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/alertrelay/internal/answer"
	"github.com/good-yellow-bee/alertrelay/internal/api"
	"github.com/good-yellow-bee/alertrelay/internal/api/health"
	"github.com/good-yellow-bee/alertrelay/internal/metrics"
	"github.com/good-yellow-bee/alertrelay/internal/notifier"
	"github.com/good-yellow-bee/alertrelay/internal/store"
	"github.com/good-yellow-bee/alertrelay/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "alertrelay",
	Short: "alertrelay - Alert ingestion and chat relay server",
	Long: `alertrelay receives monitoring alerts, stores them, notifies a
chat space, and answers chat questions about recent alerts.`,
	RunE: runRelay,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("alertrelay %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRelay(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose

	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	// In-memory alert store
	memStore := store.NewMemoryStore(cfg.Store.MaxRecords)

	// Optional durable mirror
	var mirror store.Mirror
	if cfg.Store.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLitePath), 0750); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		sqliteMirror := store.NewSQLiteMirror(cfg.Store.SQLitePath)
		if err := sqliteMirror.Open(); err != nil {
			return fmt.Errorf("open mirror database: %w", err)
		}
		defer sqliteMirror.Close()
		mirror = sqliteMirror
		log.Printf("alert mirror at %s", cfg.Store.SQLitePath)
	}

	// Chat notification dispatcher
	var dispatcher *notifier.Dispatcher
	if cfg.Notifier.WebhookURL != "" {
		chatNotifier, err := notifier.NewGoogleChatNotifier(notifier.GoogleChatConfig{
			WebhookURL: cfg.Notifier.WebhookURL,
		})
		if err != nil {
			return fmt.Errorf("create chat notifier: %w", err)
		}

		dispatcher = notifier.NewDispatcher(
			notifier.RateLimitConfig{
				MaxPerWindow: cfg.Notifier.MaxPerMinute,
				Window:       time.Minute,
				Enabled:      true,
			},
			time.Duration(cfg.Notifier.TimeoutSeconds)*time.Second,
		)
		dispatcher.Register(chatNotifier)
		dispatcher.OnResult(func(name string, err error) {
			switch {
			case err == nil:
				metrics.NotificationsSent.Inc()
			case err == notifier.ErrRateLimited:
				metrics.NotificationsDropped.Inc()
			default:
				metrics.NotificationsFailed.Inc()
			}
		})
		defer dispatcher.Close()
	} else {
		log.Printf("no webhook configured, chat notifications disabled")
	}

	// Answer generator
	var generator answer.Generator
	if cfg.Answer.APIURL != "" {
		httpGen, err := answer.NewHTTPGenerator(answer.HTTPConfig{
			URL:     cfg.Answer.APIURL,
			APIKey:  cfg.Answer.APIKey,
			Timeout: time.Duration(cfg.Answer.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("create answer generator: %w", err)
		}
		generator = httpGen
	} else {
		log.Printf("no answer endpoint configured, using stub answers")
		generator = answer.StubGenerator{}
	}

	// API server
	apiServer, err := api.New(
		&api.Config{
			Address:          cfg.Server.Address,
			RateLimitPerIP:   cfg.Server.RateLimitPerIP,
			DefaultSinceDays: cfg.Server.DefaultSinceDays,
			Verbose:          cfg.Verbose,
		},
		memStore, mirror, dispatcher, generator,
	)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}
	apiServer.RegisterHealthChecker(health.NewStoreChecker(memStore.Len))
	if mirror != nil {
		apiServer.RegisterHealthChecker(health.NewMirrorChecker(mirror))
	}

	metricsServer := metrics.NewServer(cfg.Server.MetricsAddress)

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting alertrelay %s", config.Version)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apiServer.Run(gCtx)
	})
	g.Go(func() error {
		return metricsServer.Start()
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run relay: %w", err)
	}

	log.Printf("relay stopped")
	return nil
}
