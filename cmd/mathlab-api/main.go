package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jarvis-math-lab/backend/internal/auth"
	"github.com/jarvis-math-lab/backend/internal/config"
	"github.com/jarvis-math-lab/backend/internal/game"
	"github.com/jarvis-math-lab/backend/internal/logging"
	"github.com/jarvis-math-lab/backend/internal/server"
	"github.com/jarvis-math-lab/backend/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mathlab-api",
		Short: "Jarvis Math Lab backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("data-dir", defaults.GetString("data.dir"), "Directory holding the JSON data files")
	cmd.PersistentFlags().String("admin-pin", defaults.GetString("admin.pin"), "Administrator pin")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Admin session token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Admin token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "data.dir", "data-dir")
	bindFlag(cmd, "admin.pin", "admin-pin")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := storage.NewFileStore(appConfig.DataDir)
	if err != nil {
		return err
	}

	gameService, err := game.NewService(game.ServiceConfig{
		Store:  store,
		Clock:  time.Now,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if err := gameService.BackfillSurvivalFlags(); err != nil {
		return err
	}

	var tokens server.AdminTokenIssuer
	if appConfig.SigningSecret != "" {
		tokens = auth.NewTokenIssuer(auth.TokenIssuerConfig{
			SigningSecret: []byte(appConfig.SigningSecret),
			Issuer:        "mathlab-auth",
			Audience:      "mathlab-admin",
			TokenTTL:      appConfig.TokenTTL,
		})
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		GameService: gameService,
		AdminPin:    appConfig.AdminPin,
		Tokens:      tokens,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("data_dir", appConfig.DataDir))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
