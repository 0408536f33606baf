// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiflow/internal/config"
	"github.com/xkilldash9x/uiflow/internal/observability"
)

const envPrefix = "UIFLOW"

// flagBindings maps command line flags to the config keys they override.
var flagBindings = map[string]string{
	"log-level":   "logger.level",
	"headless":    "browser.headless",
	"remote-url":  "browser.remote_url",
	"output-dir":  "runner.output_dir",
	"url":         "scrape.url",
	"base":        "scrape.base",
	"out":         "scrape.output",
	"concurrency": "scrape.concurrency",
}

// cliState is filled in by the root command's PersistentPreRunE and read by
// subcommands.
type cliState struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *cliState) {
	var cfgFile string
	state := &cliState{}

	rootCmd := &cobra.Command{
		Use:          "uiflow",
		Short:        "uiflow drives a browser through declarative UI flows.",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadViper(cmd, cfgFile)
			if err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				// Still give the failure somewhere to go.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "uiflow"})
				return fmt.Errorf("failed to load config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			state.cfg = cfg
			state.logger = observability.GetLogger()
			state.logger.Debug("Configuration loaded.", zap.String("config_file", v.ConfigFileUsed()), zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml or ~/.uiflow/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newRunCmd(state),
		newListCmd(),
		newScrapeCmd(state),
		newVersionCmd(),
	)
	return rootCmd, state
}

// loadViper layers defaults, the config file, UIFLOW_* environment variables
// and the flags set on cmd.
func loadViper(cmd *cobra.Command, cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		expanded, err := homedir.Expand(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("could not resolve config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".uiflow"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Only a missing file from the search paths is tolerated; an explicit
		// --config must exist.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for name, key := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}
	return v, nil
}

// Execute runs the command tree with args from the process and reports a
// failure through the logger.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			observability.GetLogger().Warn("Interrupted.")
		} else {
			observability.GetLogger().Error("Command execution failed.", zap.Error(err))
		}
		return err
	}
	return nil
}
