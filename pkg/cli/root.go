package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	dbPath     string
	userID     string
	calendar   string
	now        func() time.Time
}

// NewRootCmd builds the lifeos command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{now: time.Now})
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "lifeos",
		Short:         "ROI-driven personal task engine",
		Long:          `LifeOS ranks your tasks by return on time, escalates what slips, and reviews your week.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config.json (default ~/.config/lifeos/config.json)")
	flags.StringVar(&opts.dbPath, "db", "", "Path to the SQLite database (overrides config)")
	flags.StringVar(&opts.userID, "user", "", "User id to act as (overrides config)")
	flags.StringVar(&opts.calendar, "calendar", "", "Google Calendar name (overrides config)")

	root.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newUpdateCmd(opts),
		newStatusCmd(opts, "done", "Mark a task completed", true),
		newStatusCmd(opts, "reopen", "Mark a completed task pending again", false),
		newDeleteCmd(opts),
		newFocusCmd(opts),
		newEscalateCmd(opts),
		newDailyCmd(opts),
		newWeeklyCmd(opts),
		newMetricsCmd(opts),
		newArchiveCmd(opts),
		newBreakdownCmd(opts),
		newImportCmd(opts),
		newAuthCmd(opts),
		newSyncCmd(opts),
		newConfigCmd(opts),
		newSettingsCmd(opts),
		newBriefingCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
