package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/tasks"
)

func newAddCmd(opts *options) *cobra.Command {
	var (
		impact, energy, subdomain string
		estimate                  int
		money, split              bool
	)
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Create a task from free text",
		Long: `Create a task from free text. Priority words (urgent, high priority, !low),
relative dates (today, tomorrow, next week), #tags and an @domain are picked out of the text.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				draft, parsed := a.tasks.ParseDraft(strings.Join(args, " "))
				draft.ImpactType = model.ImpactType(impact)
				draft.EnergyType = model.EnergyType(energy)
				draft.Subdomain = subdomain
				draft.EstimatedTime = estimate
				if cmd.Flags().Changed("money") {
					draft.MoneyImpact = &money
				}

				task, err := a.tasks.Create(ctx, a.userID, draft)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s %s\n", successStyle.Render("Created"), shortID(task.ID), task.Title)
				if len(parsed.Tags) > 0 {
					fmt.Fprintln(out, subtleStyle.Render("tags: #"+strings.Join(parsed.Tags, " #")))
				}
				if split {
					return addSubtasks(ctx, cmd, a, task)
				}
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&impact, "impact", "", "Impact type: revenue, growth, maintenance or vanity")
	cmd.Flags().StringVar(&energy, "energy", "", "Energy type: deep or shallow")
	cmd.Flags().StringVar(&subdomain, "subdomain", "", "Subdomain within the @domain")
	cmd.Flags().IntVar(&estimate, "estimate", 0, "Estimated minutes")
	cmd.Flags().BoolVar(&money, "money", false, "Mark the task as directly affecting money")
	cmd.Flags().BoolVar(&split, "breakdown", false, "Ask the model for subtasks and create them too")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	var (
		status            string
		focusOnly, asJSON bool
		archived          bool
		limit             int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				filter := model.TaskFilter{
					Status:          model.Status(status),
					IncludeArchived: archived,
					Limit:           limit,
				}
				if focusOnly {
					filter.FocusToday = model.Ptr(true)
				}
				list, err := a.tasks.List(ctx, a.userID, filter)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, list)
				}
				return renderTasks(cmd.OutOrStdout(), list, a.now(), a.weights(ctx))
			})(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status")
	cmd.Flags().BoolVar(&focusOnly, "focus", false, "Only today's focus tasks")
	cmd.Flags().BoolVar(&archived, "archived", false, "Include archived tasks")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of tasks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	var history int
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task and its recent history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				task, err := a.lookup(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				renderTask(out, task, a.now(), a.loc, a.weights(ctx))

				logs, err := a.store.ListAuditLogs(ctx, task.ID, history)
				if err != nil {
					return err
				}
				for _, entry := range logs {
					fmt.Fprintf(out, "%s  %s\n",
						subtleStyle.Render(entry.CreatedAt.In(a.loc).Format("2006-01-02 15:04")),
						entry.Action)
				}
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&history, "history", 10, "Number of audit entries to show")
	return cmd
}

func newUpdateCmd(opts *options) *cobra.Command {
	var (
		title, domain, subdomain, impact, energy, due string
		priority, estimate                            int
		clearDue, money                               bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				task, err := a.lookup(ctx, args[0])
				if err != nil {
					return err
				}

				var p tasks.Patch
				flags := cmd.Flags()
				if flags.Changed("title") {
					p.Title = &title
				}
				if flags.Changed("domain") {
					p.Domain = &domain
				}
				if flags.Changed("subdomain") {
					p.Subdomain = &subdomain
				}
				if flags.Changed("priority") {
					p.Priority = &priority
				}
				if flags.Changed("impact") {
					p.ImpactType = model.Ptr(model.ImpactType(impact))
				}
				if flags.Changed("energy") {
					p.EnergyType = model.Ptr(model.EnergyType(energy))
				}
				if flags.Changed("estimate") {
					p.EstimatedTime = &estimate
				}
				if flags.Changed("money") {
					p.MoneyImpact = &money
				}
				if flags.Changed("due") {
					when, err := parseWhen(due, a.loc)
					if err != nil {
						return err
					}
					p.DueDate = &when
				}
				p.ClearDueDate = clearDue

				updated, err := a.tasks.Update(ctx, a.userID, task.ID, task.Version, p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (v%d)\n", successStyle.Render("Updated"), shortID(updated.ID), updated.Version)
				return nil
			})(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "New title")
	f.StringVar(&domain, "domain", "", "New domain")
	f.StringVar(&subdomain, "subdomain", "", "New subdomain")
	f.IntVar(&priority, "priority", 0, "New priority (1-5)")
	f.StringVar(&impact, "impact", "", "New impact type")
	f.StringVar(&energy, "energy", "", "New energy type")
	f.IntVar(&estimate, "estimate", 0, "New estimate in minutes")
	f.StringVar(&due, "due", "", "New due date")
	f.BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	f.BoolVar(&money, "money", false, "Set money impact")
	return cmd
}

func newStatusCmd(opts *options, use, short string, completed bool) *cobra.Command {
	status := model.StatusPending
	if completed {
		status = model.StatusCompleted
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				task, err := a.lookup(ctx, args[0])
				if err != nil {
					return err
				}
				updated, err := a.tasks.SetStatus(ctx, a.userID, task.ID, task.Version, status)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", successStyle.Render(string(updated.Status)), shortID(updated.ID), updated.Title)
				return nil
			})(cmd.Context())
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				task, err := a.lookup(ctx, args[0])
				if err != nil {
					return err
				}
				if err := a.tasks.Delete(ctx, a.userID, task.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", warnStyle.Render("Deleted"), shortID(task.ID), task.Title)
				return nil
			})(cmd.Context())
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
