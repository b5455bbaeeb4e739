// Package cmd wires the rdx command line: a key-space browser TUI plus
// one-shot scan and mutation commands over configured redis connections.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/rdx/internal/config"
	"github.com/oakwood-commons/rdx/internal/session"
	"github.com/oakwood-commons/rdx/internal/store"
	"github.com/oakwood-commons/rdx/pkg/logger"
	"github.com/oakwood-commons/rdx/pkg/settings"
)

var (
	configPath string
	logLevel   int8
	noColor    bool

	rootCtx = context.Background()
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName,
	Short: "Browse and edit redis key spaces",
	Long: `rdx is a key-space browser for redis. It scans keys incrementally,
folds them into a namespace tree, and loads values on demand. Run
"rdx browse <connection>" for the interactive view, or use the one-shot
commands (keys, get, set, del, ttl) for scripting.

Connections are read from ` + "`" + `$XDG_CONFIG_HOME/rdx/config.yaml` + "`" + `.`,
	Example: "\n  rdx browse local\n  rdx keys local user --mode prefix\n  rdx keys local --expr 'type == \"LIST\"'\n  rdx get local user:42:profile\n  rdx ttl local session:9 30m\n",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		lgr := logger.Get(logLevel)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
		rootCtx = logger.WithLogger(context.Background(), lgr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file (default: XDG rdx/config.yaml)")
	rootCmd.PersistentFlags().Int8Var(&logLevel, "log-level", 0, "minimum log level (zap levels; -1 enables debug)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print rdx version",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Println(cliVersionString()) //nolint:forbidigo
		return nil
	},
}

func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s)", settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime)
}

// loadSetup loads the config file and builds the shared store provider.
func loadSetup() (*config.Config, *store.RedisProvider, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	provider := store.NewRedisProvider(func(name string) (string, bool) {
		conn, ok := cfg.Connection(name)
		return conn.URL, ok
	})
	return cfg, provider, nil
}

// openRegistry builds the session registry every scanning subcommand
// shares.
func openRegistry() (*session.Registry, error) {
	cfg, provider, err := loadSetup()
	if err != nil {
		return nil, err
	}
	return session.NewRegistry(cfg, provider, logger.FromContext(rootCtx)), nil
}
