package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/lifeos/pkg/breakdown"
	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/taskwarrior"
	"github.com/harrisonrobin/lifeos/pkg/tasks"
)

func newBreakdownClient(a *app) *breakdown.Client {
	return breakdown.New(breakdown.Config{
		BaseURL: a.cfg.LLM.BaseURL,
		APIKey:  a.cfg.LLM.APIKey,
		Model:   a.cfg.LLM.Model,
		Timeout: a.cfg.LLMTimeout(),
	})
}

// addSubtasks asks the model for steps and creates one task per step with
// the parent's domain, impact and due date.
func addSubtasks(ctx context.Context, cmd *cobra.Command, a *app, parent model.Task) error {
	steps := newBreakdownClient(a).Breakdown(ctx, parent.Title, parent.Domain)
	out := cmd.OutOrStdout()
	if len(steps) == 0 {
		fmt.Fprintln(out, subtleStyle.Render("No breakdown available."))
		return nil
	}
	for _, step := range steps {
		sub, err := a.tasks.Create(ctx, a.userID, tasks.Draft{
			Title:      step,
			Domain:     parent.Domain,
			Subdomain:  parent.Subdomain,
			ImpactType: parent.ImpactType,
			EnergyType: parent.EnergyType,
			DueDate:    parent.DueDate,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s %s\n", shortID(sub.ID), sub.Title)
	}
	return nil
}

func newBreakdownCmd(opts *options) *cobra.Command {
	var create bool
	cmd := &cobra.Command{
		Use:   "breakdown <id>",
		Short: "Split a task into 3-5 concrete steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				task, err := a.lookup(ctx, args[0])
				if err != nil {
					return err
				}
				if create {
					return addSubtasks(ctx, cmd, a, task)
				}
				steps, err := newBreakdownClient(a).Subtasks(ctx, task.Title, task.Domain)
				if err != nil {
					return err
				}
				for i, step := range steps {
					fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, step)
				}
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&create, "create", false, "Create the steps as tasks")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import [filter...]",
		Short: "Import open tasks from Taskwarrior",
		Long: `Import pending and waiting Taskwarrior tasks. Without --file, runs
"task <filter> export"; with --file, reads an export ("-" for stdin).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				var (
					tws []taskwarrior.Task
					err error
				)
				switch file {
				case "":
					tws, err = taskwarrior.NewClient().Export(ctx, args)
				case "-":
					tws, err = taskwarrior.ParseTasks(cmd.InOrStdin())
				default:
					f, openErr := os.Open(file)
					if openErr != nil {
						return openErr
					}
					defer f.Close()
					tws, err = taskwarrior.ParseTasks(f)
				}
				if err != nil {
					return err
				}

				report := taskwarrior.Import(ctx, a.tasks, a.store, a.userID, tws)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, skipped %d closed, %d already imported, %d failed\n",
					len(report.Created), report.Skipped, report.Duplicates, report.Failed)
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read a Taskwarrior export from this file instead of running task")
	return cmd
}
