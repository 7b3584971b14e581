package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/lifeos/pkg/auth"
	"github.com/harrisonrobin/lifeos/pkg/colors"
	"github.com/harrisonrobin/lifeos/pkg/config"
	"github.com/harrisonrobin/lifeos/pkg/google"
	"github.com/harrisonrobin/lifeos/pkg/index"
	"github.com/harrisonrobin/lifeos/pkg/model"
)

// mirror is an authenticated calendar client plus the local files it keeps.
type mirror struct {
	client *google.CalendarClient
	index  *index.EventIndex
	colors *colors.ColorCache
}

func openMirror(ctx context.Context, a *app) (*mirror, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	idx, err := index.NewEventIndex(index.DefaultPath(dir))
	if err != nil {
		log.Printf("Warning: failed to load event index, starting empty: %v", err)
		idx = nil
	}
	cache, err := colors.NewColorCache(colors.DefaultPath(dir))
	if err != nil {
		log.Printf("Warning: failed to load color cache, starting empty: %v", err)
		cache = nil
	}

	client, err := google.NewClient(ctx, a.cfg.Calendar, idx, cache)
	if err != nil {
		return nil, fmt.Errorf("google calendar: %w", err)
	}
	client.SetClock(a.now)
	client.SetWeights(a.weights(ctx))
	return &mirror{client: client, index: idx, colors: cache}, nil
}

func (m *mirror) save() {
	if m.index != nil {
		if err := m.index.Save(); err != nil {
			log.Printf("Warning: failed to save event index: %v", err)
		}
	}
	if m.colors != nil {
		if err := m.colors.Save(); err != nil {
			log.Printf("Warning: failed to save color cache: %v", err)
		}
	}
}

func newAuthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Long:  `Run the browser OAuth flow and store a fresh token next to credentials.json in ~/.config/lifeos.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.Login(cmd.Context()); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Authentication successful."))
			return nil
		},
	}
}

func newSyncCmd(opts *options) *cobra.Command {
	var prune bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror today's focus tasks to Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				focused, err := a.store.FindTasks(ctx, model.TaskFilter{
					UserID:         a.userID,
					FocusToday:     model.Ptr(true),
					IncludeDeleted: true,
				})
				if err != nil {
					return err
				}
				mirror, err := openMirror(ctx, a)
				if err != nil {
					return err
				}
				defer mirror.save()

				report := mirror.client.SyncAll(ctx, focused)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Synced %d, removed %d, skipped %d, failed %d\n",
					report.Synced, report.Removed, report.Skipped, report.Failed)
				if !prune {
					return nil
				}

				keep := make(map[string]bool, len(focused))
				for _, t := range focused {
					if !t.IsDeleted && t.ArchivedAt == nil {
						keep[t.ID] = true
					}
				}
				now := a.now().In(a.loc)
				midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
				pruned, err := mirror.client.Prune(ctx, midnight, keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d event(s) no longer in focus\n", pruned)
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "Also delete today's events for tasks that left focus")
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				return writeJSON(cmd, cfg)
			},
		},
		&cobra.Command{
			Use:   "set-calendar <name>",
			Short: "Set the default Google Calendar",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				cfg.Calendar = args[0]
				if err := opts.saveConfig(cfg); err != nil {
					return fmt.Errorf("error saving config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Default calendar set to: %s\n", cfg.Calendar)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-timezone <zone>",
			Short: "Set the IANA zone used for due dates and daily batches",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				cfg.Timezone = args[0]
				if _, err := cfg.Location(); err != nil {
					return err
				}
				if err := opts.saveConfig(cfg); err != nil {
					return fmt.Errorf("error saving config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Timezone set to: %s\n", cfg.Timezone)
				return nil
			},
		},
	)
	return cmd
}
