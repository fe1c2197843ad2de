// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/internal/config"
	"github.com/xkilldash9x/pagecomp/internal/observability"
)

// cliState carries what PersistentPreRunE resolves to the subcommands.
type cliState struct {
	cfgFile string
	envFile string
	v       *viper.Viper
	cfg     *config.Config
	logger  *zap.Logger
}

const defaultEnvFile = ".env"

// NewRootCmd builds the command tree. Every call returns an independent tree,
// so tests can execute commands side by side.
func NewRootCmd() *cobra.Command {
	st := &cliState{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "pagecomp",
		Short:         "pagecomp runs declared page-component checks against a real browser.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// This function runs before any command, setting up config and logging.
			config.SetDefaults(st.v)
			if err := initializeConfig(st); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			cfg, err := config.NewConfigFromViper(st.v)
			if err != nil {
				return err
			}
			st.cfg = cfg

			observability.InitializeLogger(cfg.Logger())
			st.logger = observability.GetLogger()
			st.logger.Debug("Starting pagecomp", zap.String("version", Version))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&st.cfgFile, "config", "c", "", "config file (default is ./pagecomp.yaml)")
	rootCmd.PersistentFlags().StringVar(&st.envFile, "env-file", defaultEnvFile, "dotenv file loaded before PAGECOMP_ variables are read")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newCheckCmd(st))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command with ctx, which main makes signal-aware.
func Execute(ctx context.Context) error {
	err := NewRootCmd().ExecuteContext(ctx)
	defer observability.Sync()
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrChecksFailed) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// initializeConfig reads in the config file and ENV variables if set.
func initializeConfig(st *cliState) error {
	v := st.v
	if st.cfgFile != "" {
		v.SetConfigFile(st.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pagecomp")
		v.SetConfigType("yaml")
	}
	// Variables already in the environment win over the dotenv file.
	if err := godotenv.Load(st.envFile); err != nil {
		if st.envFile != defaultEnvFile || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading env file: %w", err)
		}
	}
	config.BindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if st.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}
