package cmd

import (
	"github.com/spf13/cobra"

	"github.com/artesanomultimedia/grelo-installer/internal/service/installer"
)

var (
	// development selects the development channel.
	development bool
	// force installs even if the directory already exists.
	force bool

	newCmd = &cobra.Command{
		Use:   "new [name]",
		Short: "Create a new Grelo application.",
		Long: `Downloads the Grelo skeleton into ./<name>, or into the current
directory when the name is omitted or ".", and runs composer install.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			var name string
			if len(args) > 0 {
				name = args[0]
			}

			options := &installer.Options{
				ConfigPath:     configPath,
				ConfigRequired: cmd.Flags().Changed("config"),
				Output:         cmd.OutOrStdout(),
				Request: installer.Request{
					Name:        name,
					Development: development,
					Force:       force,
					Quiet:       quiet,
					NoANSI:      noANSI,
				},
			}

			status, err := installer.Run(ctx, options)
			exitCode = status

			return err
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	newCmd.Flags().BoolVar(&development, "dev", false, "install the latest \"development\" release")
	newCmd.Flags().BoolVarP(&force, "force", "f", false, "force install even if the directory already exists")

	rootCmd.AddCommand(newCmd)
}
