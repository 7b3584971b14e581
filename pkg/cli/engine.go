package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/lifeos/pkg/daily"
	"github.com/harrisonrobin/lifeos/pkg/focus"
	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/overdue"
)

func newFocusCmd(opts *options) *cobra.Command {
	var sync bool
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Pick today's highest-ROI tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				selector := focus.NewSelector(a.store, a.audit, a.cfg.FocusCount)
				result, err := selector.SelectToday(ctx, a.userID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, titleStyle.Render("Today's focus"))
				if err := renderTasks(out, result.Selected, a.now(), a.weights(ctx)); err != nil {
					return err
				}
				if result.Conflicts > 0 {
					fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("%d task(s) changed underneath us and were skipped", result.Conflicts)))
				}
				if result.Failed > 0 {
					fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("%d task(s) could not be flagged", result.Failed)))
				}
				if !sync || len(result.Selected) == 0 {
					return nil
				}

				mirror, err := openMirror(ctx, a)
				if err != nil {
					return err
				}
				defer mirror.save()
				report := mirror.client.SyncAll(ctx, result.Selected)
				fmt.Fprintln(out, subtleStyle.Render(fmt.Sprintf("calendar: %d synced, %d without a date", report.Synced, report.Skipped)))
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "Mirror the selection to Google Calendar")
	cmd.AddCommand(newFocusStartCmd(opts))
	return cmd
}

func newFocusStartCmd(opts *options) *cobra.Command {
	var session focus.SessionOptions
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a deep focus session",
		Long: `Book a block of deep work as a focused, top-priority task due when the block
ends. The length defaults to the focus duration from "lifeos settings".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				selector := focus.NewSelector(a.store, a.audit, a.cfg.FocusCount)
				selector.SetClock(a.now)
				started, err := selector.StartSession(ctx, a.userID, session)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Focus mode activated. %d minutes of deep work started.", started.Minutes)))
				fmt.Fprintf(out, "%s  %s  until %s\n", shortID(started.Task.ID), started.Task.Title,
					started.End.In(a.loc).Format("15:04"))
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&session.Title, "title", "", "Session title")
	cmd.Flags().StringVar(&session.Domain, "domain", "", "Session domain (default Productivity)")
	cmd.Flags().IntVar(&session.Minutes, "minutes", 0, "Session length in minutes")
	return cmd
}

func newEscalateCmd(opts *options) *cobra.Command {
	var calendarNotify bool
	cmd := &cobra.Command{
		Use:   "escalate",
		Short: "Run one escalation pass over overdue tasks",
		Long: `Raise the reminder level of every overdue pending task, deliver a reminder,
and spawn a 15 minute micro-task for anything delayed twice or more.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
				notifiers := overdue.Notifiers{overdue.LogNotifier{Logger: logger}}

				if calendarNotify {
					mirror, err := openMirror(ctx, a)
					if err != nil {
						return err
					}
					defer mirror.save()
					notifiers = append(notifiers, mirror.client)
				}

				engine := overdue.NewEngine(a.store, a.audit, notifiers)
				engine.SetClock(a.now)
				engine.SetLogger(logger)
				report, err := engine.Run(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %d reminder(s), %d micro-task(s), %d conflict(s), %d failed\n",
					titleStyle.Render("Escalation:"), len(report.Results), len(report.MicroTasks), report.Conflicts, report.Failed)
				for _, r := range report.Results {
					fmt.Fprintf(out, "  %-9s %s\n", r.Action, r.Message)
				}
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&calendarNotify, "notify-calendar", false, "Also mark reminders on the Google Calendar events")
	return cmd
}

func newDailyCmd(opts *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Generate today's recurring batch tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				batches, err := daily.LoadBatches(a.cfg.DailyBatchesFile)
				if err != nil {
					return err
				}
				gen := daily.NewGenerator(a.store, a.audit, daily.Options{
					Batches:         batches,
					Location:        a.loc,
					AllowDuplicates: a.cfg.AllowDuplicateDaily,
				})
				gen.SetClock(a.now)
				out := cmd.OutOrStdout()

				if all {
					users, err := a.store.ListUserIDs(ctx)
					if err != nil {
						return err
					}
					for user, created := range gen.GenerateAll(ctx, users) {
						fmt.Fprintf(out, "%s: %d task(s)\n", user, len(created))
					}
					return nil
				}

				created, err := gen.Generate(ctx, a.userID)
				if errors.Is(err, daily.ErrAlreadyGenerated) {
					fmt.Fprintln(out, subtleStyle.Render("Daily tasks were already generated today."))
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Generated %d daily task(s)", len(created))))
				return renderTasks(out, created, a.now(), a.weights(ctx))
			})(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Generate for every user in the database")
	return cmd
}

func newArchiveCmd(opts *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive completed tasks older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				retention := a.cfg.ArchiveAfter()
				if days > 0 {
					retention = time.Duration(days) * 24 * time.Hour
				}
				report, err := a.tasks.Archive(ctx, retention)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Archived %d task(s), %d conflict(s), %d failed\n", len(report.Archived), report.Conflicts, report.Failed)
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (default from config)")
	return cmd
}

func newBriefingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "briefing",
		Short: "Print the morning briefing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				selector := focus.NewSelector(a.store, a.audit, a.cfg.FocusCount)
				selector.SetClock(a.now)
				b, err := selector.Brief(ctx, a.userID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, titleStyle.Render("Good morning."))
				if len(b.Focus) == 0 {
					fmt.Fprintln(out, subtleStyle.Render(`No focus tasks set. Run "lifeos focus" to pick some.`))
				} else {
					fmt.Fprintln(out, "Today's top focus:")
					for i, t := range b.Focus {
						hot := ""
						if t.Priority == model.MaxPriority {
							hot = " " + errorStyle.Render("!")
						}
						fmt.Fprintf(out, "  %d. %s%s\n", i+1, t.Title, hot)
					}
				}
				if b.Overdue > 0 {
					fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("You have %d overdue task(s). Clear them out!", b.Overdue)))
				}
				fmt.Fprintln(out, subtleStyle.Render(b.Quote))
				return nil
			})(cmd.Context())
		},
	}
}
