package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/lifeos/pkg/focus"
	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/roi"
)

func newSettingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change per-user ranking settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print impact weights and focus duration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(opts, func(ctx context.Context, a *app) error {
					settings, err := a.store.GetUserSettings(ctx, a.userID)
					if err != nil {
						return err
					}
					weights := roi.Resolve(settings.ImpactWeights)
					duration := settings.FocusDuration
					if duration <= 0 {
						duration = focus.DefaultSessionMinutes
					}

					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "IMPACT\tWEIGHT")
					for _, impact := range impactOrder {
						fmt.Fprintf(w, "%s\t%g\n", impact, weights.Weight(impact))
					}
					fmt.Fprintf(w, "\nfocus duration\t%d min\n", duration)
					return w.Flush()
				})(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "set-weight <impact> <weight>",
			Short: "Set the ranking weight of an impact type",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				impact := model.ImpactType(args[0])
				if !impact.Valid() {
					return fmt.Errorf("unknown impact type %q", args[0])
				}
				weight, err := strconv.ParseFloat(args[1], 64)
				if err != nil || weight <= 0 {
					return fmt.Errorf("weight must be a positive number, got %q", args[1])
				}
				return withApp(opts, func(ctx context.Context, a *app) error {
					settings, err := a.store.GetUserSettings(ctx, a.userID)
					if err != nil {
						return err
					}
					// Start from the effective table so unset types keep their defaults.
					current := roi.Resolve(settings.ImpactWeights)
					settings.ImpactWeights = make(map[model.ImpactType]float64, len(current))
					for k, v := range current {
						settings.ImpactWeights[k] = v
					}
					settings.ImpactWeights[impact] = weight
					settings.UserID = a.userID
					if err := a.store.SaveUserSettings(ctx, settings); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Weight for %s set to %g\n", impact, weight)
					return nil
				})(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "set-focus-duration <minutes>",
			Short: "Set the default length of a focus session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				minutes, err := strconv.Atoi(args[0])
				if err != nil || minutes <= 0 {
					return fmt.Errorf("minutes must be a positive integer, got %q", args[0])
				}
				return withApp(opts, func(ctx context.Context, a *app) error {
					settings, err := a.store.GetUserSettings(ctx, a.userID)
					if err != nil {
						return err
					}
					settings.UserID = a.userID
					settings.FocusDuration = minutes
					if err := a.store.SaveUserSettings(ctx, settings); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Focus duration set to %d min\n", minutes)
					return nil
				})(cmd.Context())
			},
		},
	)
	return cmd
}

var impactOrder = []model.ImpactType{
	model.ImpactRevenue, model.ImpactGrowth, model.ImpactMaintenance, model.ImpactVanity,
}
