package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lefthander07/UserAPI/internal/config"
	"github.com/Lefthander07/UserAPI/internal/server"
	"github.com/Lefthander07/UserAPI/internal/service"
	"github.com/Lefthander07/UserAPI/internal/store"
)

const banner = `
 _   _              _   ___ ___
| | | |___ ___ _ _ /_\ | _ \_ _|
| |_| (_-</ -_) '_/ _ \|  _/| |
 \___//__/\___|_|/_/ \_\_| |___|
`

func newServeCmd(version string) *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the user API server",
		Long:  "Start the HTTP server that exposes the account lifecycle and authentication API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, host, port, dev, version)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(cmd *cobra.Command, host string, port int, dev bool, version string) error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") || cfg.Server.Host == "" {
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") || cfg.Server.Port == 0 {
		cfg.Server.Port = port
	}

	logger := newLogger(cfg.Logging, dev)

	st, err := store.Open(store.Config{
		Driver:  cfg.Database.Driver,
		DSN:     cfg.Database.DSN,
		DataDir: cfg.Database.DataDir,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	logger.Info("store opened", "driver", cfg.Database.Driver)

	users := service.NewUsers(st, logger)

	seeded, err := users.Bootstrap(context.Background())
	if err != nil {
		st.Close()
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if seeded {
		fmt.Println("→ Seeded default admin account (login \"admin\"). Change its password.")
	}

	secret := viper.GetString("auth.jwt_secret")
	if secret == "" {
		secret = cfg.Auth.JWTSecret
	}
	if secret == "" {
		secret = "userapi-dev-secret-change-me"
		logger.Warn("no JWT secret configured, using development default")
	}
	authSvc := service.NewAuthService(st, service.TokenConfig{
		Secret:   secret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.Auth.TokenTTL.Std(),
	})

	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
		CORSOrigins:     cfg.Server.CORSOrigins,
	}
	srv := server.New(srvCfg, users, authSvc, st, version, logger)

	fmt.Printf("→ UserAPI %s\n", version)
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:  http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:   http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}

func loadConfig() (config.Config, error) {
	path := cfgFile
	if path == "" {
		path = "userapi.yaml"
	}
	return config.Load(path)
}

func newLogger(cfg config.LoggingConfig, dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
