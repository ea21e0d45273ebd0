package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bobchat/cli/config"
	"github.com/bobchat/cli/internal/logging"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "bobchat",
	Short: "Terminal client for the Chat With BOb! backend",
	Long: "bobchat keeps your conversations locally and forwards chat, image and PDF\n" +
		"questions to the Chat With BOb! backend. Run without arguments for the TUI.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// the TUI owns the terminal, so it only logs to the file
		return initLogger(cmd == cmd.Root())
	},
	RunE: runTUI,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default ~/.bobchat/config.yaml)")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	flags.String("log-file", "", "log file path")
	flags.String("log-format", "", "log format: text, json")
	flags.String("base-url", "", "backend base URL")
	flags.String("thread-id", "", "thread identifier sent with every request")
	flags.Duration("timeout", 0, "backend request timeout (0 waits forever)")
	flags.String("storage", "", "storage driver: bolt, sqlite, postgres, redis, memory")
	flags.String("storage-path", "", "bolt or sqlite database file")
	flags.String("dsn", "", "postgres connection string")
	flags.String("redis-addr", "", "redis address")
	flags.Bool("ephemeral", false, "keep everything in memory for this run")

	v.SetEnvPrefix("bobchat")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cobra.CheckErr(v.BindPFlags(flags))

	rootCmd.AddCommand(
		newLoginCmd(),
		newSignupCmd(),
		newLogoutCmd(),
		newSendCmd(),
		newImagineCmd(),
		newConversationsCmd(),
		newHealthCmd(),
		newConfigCmd(),
		newMigrateCmd(),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag and env overrides
func loadConfig() (*config.Config, error) {
	path := v.GetString("config")
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Override(v)
	return cfg, nil
}

func initLogger(quiet bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Format: cfg.Log.Format,
		Quiet:  quiet,
	}); err != nil {
		return err
	}
	log.Debug().Str("config", v.GetString("config")).Str("storage", cfg.Storage.Driver).Msg("loaded configuration")
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return fmt.Errorf("bobchat needs a terminal; use `bobchat send` when scripting")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	signedIn, err := a.auth.Restore(ctx)
	if err != nil {
		return err
	}
	deps, err := a.tuiDeps(ctx)
	if err != nil {
		return err
	}
	return runProgram(ctx, deps, signedIn)
}
