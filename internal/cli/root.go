package cli

import (
	"fmt"
	"time"

	"github.com/existflow/wbsync/internal/config"
	"github.com/existflow/wbsync/internal/logger"
	"github.com/spf13/cobra"
)

// options holds the persistent flags plus the config they were merged into
type options struct {
	configPath     string
	clientSettings string
	logLevel       string
	logFile        string
	logConsole     bool

	serverURL string
	dataPath  string
	actor     string
	mode      string
	userID    string

	watchInterval time.Duration

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "wbs",
		Short: "WBS - shared work breakdown structure",
		Long: `wbs edits a work breakdown structure shared by a small team.

Every change is checked against the version it was made from; if someone else
saved first, the edit is rejected and the latest document is loaded instead.

Run 'wbs' without arguments to launch the live task list.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Debug("wbs exiting", logger.F("command", cmd.Name()))
			logger.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default ~/.wbs/config.yaml)")
	flags.StringVar(&opts.clientSettings, "client-settings", "", "Client settings file (default ~/.wbs/client.json)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	flags.StringVar(&opts.logFile, "log-file", "", "Path to log file")
	flags.BoolVar(&opts.logConsole, "log-console", false, "Enable console logging")
	flags.StringVar(&opts.serverURL, "server", "", "Server URL for this command (overrides 'wbs configure')")
	flags.StringVar(&opts.dataPath, "data", "", "Work on a local data file or database instead of a server")
	flags.StringVar(&opts.actor, "as", "", "Name recorded as updated_by")
	flags.StringVar(&opts.mode, "mode", "", "Local mode: admin or member")
	flags.StringVar(&opts.userID, "user-id", "", "Member user id")
	_ = flags.MarkHidden("client-settings")

	cmd.AddCommand(
		newWatchCmd(opts),
		newShowCmd(opts),
		newTaskCmd(opts),
		newUserCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newSettingsCmd(opts),
		newBackupCmd(opts),
		newStatusCmd(opts),
		newConfigureCmd(opts),
	)
	return cmd
}

// init loads the config, applies flag overrides and starts the logger
func (o *options) init(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if cmd.Flags().Changed("log-console") {
		cfg.LogConsole = o.logConsole
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = o.mode
	}
	if cmd.Flags().Changed("user-id") {
		cfg.UserID = o.userID
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	logConfig := logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		FilePath:   cfg.LogFile,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    cfg.LogConsole,
	}
	if err := logger.Init(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Debug("wbs started", logger.F("command", cmd.Name()))
	return nil
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}
