// Command impact-profile-api serves the platform and user document
// resources over HTTP, backed by MongoDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agile-crafts-people/impact-profile-api/pkg/api"
	"github.com/agile-crafts-people/impact-profile-api/pkg/auth"
	"github.com/agile-crafts-people/impact-profile-api/pkg/config"
	"github.com/agile-crafts-people/impact-profile-api/pkg/health"
	"github.com/agile-crafts-people/impact-profile-api/pkg/observability/logger"
	"github.com/agile-crafts-people/impact-profile-api/pkg/repository/document"
	"github.com/agile-crafts-people/impact-profile-api/pkg/resource"
	"github.com/agile-crafts-people/impact-profile-api/pkg/server"
	mongostore "github.com/agile-crafts-people/impact-profile-api/pkg/store/mongodb"
	"github.com/agile-crafts-people/impact-profile-api/pkg/version"
	"github.com/spf13/cobra"
)

const envPrefix = "IMPACT"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "impact-profile-api",
		Short:         "HTTP API for platform and user profile documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configFile)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Current("impact-profile-api")
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s)\n",
				info.Service, info.Version, info.Commit, info.BuildTime)
		},
	}

	root.AddCommand(serve, versionCmd)
	return root
}

func runServe(configFile string) error {
	cfg, err := config.NewViperLoader(configFile, envPrefix).Load()
	if err != nil {
		return err
	}

	logLevel, err := logger.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logFormat, err := logger.ParseLogFormat(cfg.Logging.Format)
	if err != nil {
		return err
	}
	log, err := logger.NewZapLogger(logger.Config{Level: logLevel, Format: logFormat})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	adapter, err := mongostore.NewAdapter(mongostore.Config{
		URL:              cfg.Mongo.URL,
		Database:         cfg.Mongo.Database,
		ConnectTimeout:   cfg.Mongo.ConnectTimeout,
		OperationTimeout: cfg.Mongo.OperationTimeout,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := adapter.Close(); err != nil {
			log.Error("failed to close mongodb adapter", "error", err)
		}
	}()

	executor, err := document.NewMongoDBExecutor(adapter)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret)
	policy := auth.AllowAuthenticated{}

	platforms := resource.NewService(cfg.Mongo.PlatformCollection, resource.AllowedSortFields, executor, policy, log)
	users := resource.NewService(cfg.Mongo.UserCollection, resource.AllowedSortFields, executor, policy, log)

	healthRegistry := health.NewRegistry()
	healthRegistry.Register(health.NewAdapterChecker("mongodb", adapter, 0))

	router := api.BuildRouter(api.Options{
		Logger:    log,
		Tokens:    tokens,
		Platforms: platforms,
		Users:     users,
		Health:    healthRegistry,
	})

	srv := server.NewServer(server.Config{
		Port:         cfg.HTTP.Port,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}, router, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("service starting",
		"service", cfg.Service.Name,
		"environment", cfg.Service.Environment,
		"version", version.Current(cfg.Service.Name).Version,
	)

	return srv.Start(ctx)
}
