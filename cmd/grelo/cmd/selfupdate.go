package cmd

import (
	"github.com/spf13/cobra"

	"github.com/artesanomultimedia/grelo-installer/internal/service/updater"
)

var (
	// forceUpdate reinstalls even when the published version is not newer.
	forceUpdate bool

	selfUpdateCmd = &cobra.Command{
		Use:   "self-update",
		Short: "Replace the installer with the latest published release.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			options := &updater.Options{
				ConfigPath:     configPath,
				ConfigRequired: cmd.Flags().Changed("config"),
				Force:          forceUpdate,
			}

			return updater.Run(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	selfUpdateCmd.Flags().BoolVarP(&forceUpdate, "force", "f", false, "update even if the installed version is current")

	rootCmd.AddCommand(selfUpdateCmd)
}
