package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/koustreak/dbgen/internal/config"
	"github.com/koustreak/dbgen/internal/errs"
)

type rootFlags struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "dbgen",
		Short:         "Generate classes and wiki pages from a database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&rf.configFile, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&rf.envFile, "env-file", ".env", "dotenv file loaded before the config")
	root.PersistentFlags().StringVar(&rf.logLevel, "log-level", "", "debug, info, warn, error or disabled")
	root.PersistentFlags().StringVar(&rf.logFormat, "log-format", "", "console or json")

	root.AddCommand(newGenerateCmd(rf))
	root.AddCommand(newServeCmd(rf))
	root.AddCommand(newVersionCmd())
	return root
}

// load reads the dotenv file, the config file and the environment, then
// applies the root overrides. Command-specific overrides come after.
func (rf *rootFlags) load(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(rf.envFile); err != nil {
		// the default .env is optional
		if cmd.Flags().Changed("env-file") || !errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to load env file "+rf.envFile, err)
		}
	}
	cfg, err := config.Load(rf.configFile)
	if err != nil {
		return nil, err
	}
	if rf.logLevel != "" {
		cfg.Log.Level = rf.logLevel
	}
	if rf.logFormat != "" {
		cfg.Log.Format = rf.logFormat
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
