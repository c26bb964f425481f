// The main file of Tabcast.

package main

import (
	"Tabcast/internal/auth"
	"Tabcast/internal/config"
	"Tabcast/pkg/log"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Indicates the current version of Tabcast, overridden at build time via -ldflags.
var Version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	v.SetDefault("version", Version)

	root := &cobra.Command{
		Use:          "tabcast",
		Short:        "Long-poll event delivery for browser tabs",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			if envFile == "" {
				envFile = config.EnvFile(v.GetString("env"))
			}
			if envFile == "" {
				return nil
			}
			if enverr := config.LoadEnvFile(envFile); enverr != nil && cmd.Flags().Changed("env-file") {
				return fmt.Errorf("load %s: %w", envFile, enverr)
			}
			return nil
		},
	}
	root.PersistentFlags().String("env-file", "", "dotenv file to load before reading configuration")
	root.PersistentFlags().String("log-level", "info", "zerolog level (debug, info, warn, error)")
	bindFlag(v, root.PersistentFlags().Lookup("log-level"), "log_level")

	root.AddCommand(newServeCmd(v), newTokenCmd(v))
	return root
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Tabcast HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			if valerr := cfg.Validate(); valerr != nil {
				return valerr
			}
			return serve(cfg)
		},
	}
	f := cmd.Flags()
	f.String("addr", "0.0.0.0", "address gin listens on")
	f.Int("port", 8080, "port gin listens on")
	f.Duration("poll-timeout", 30*time.Second, "how long a long-poll is held open")
	f.Duration("idle-timeout", 2*time.Minute, "how long an unpolled tab lives")
	f.Duration("sweep-interval", 10*time.Second, "interval of the maintenance sweep")
	f.Bool("poll-timers", true, "arm a timer per attached poll instead of relying on the sweep alone")
	f.String("status-store", config.StoreNone, "where tab status is persisted (redis, sqlite, none)")
	f.String("sqlite-path", "tabcast.db", "sqlite database used with --status-store=sqlite")

	bindFlag(v, f.Lookup("addr"), "srv_addr")
	bindFlag(v, f.Lookup("port"), "srv_port")
	bindFlag(v, f.Lookup("poll-timeout"), "poll_timeout")
	bindFlag(v, f.Lookup("idle-timeout"), "tab_idle_timeout")
	bindFlag(v, f.Lookup("sweep-interval"), "sweep_interval")
	bindFlag(v, f.Lookup("poll-timers"), "poll_timers")
	bindFlag(v, f.Lookup("status-store"), "status_store")
	bindFlag(v, f.Lookup("sqlite-path"), "sqlite_path")
	return cmd
}

func newTokenCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Issue a development access token for username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")
			logger := log.New(cfg.Version)
			token, jwterr := auth.IssueToken(context.Background(), logger, cfg.JWTSecret, strings.TrimSpace(args[0]), ttl)
			if jwterr != nil {
				return jwterr
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", 24*time.Hour, "lifetime of the token")
	return cmd
}

// viper only takes the flag value when it was set, env vars and defaults apply otherwise.
func bindFlag(v *viper.Viper, flag *pflag.Flag, key string) {
	_ = v.BindPFlag(key, flag)
}
