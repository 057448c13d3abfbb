package cmd

import (
	"github.com/spf13/cobra"

	"github.com/artesanomultimedia/grelo-installer/internal/service/packager"
)

var (
	// updateFolder is the URL the release directory will be uploaded to.
	updateFolder string
	// releaseVersion overrides the version written to the description.
	releaseVersion string

	packageCmd = &cobra.Command{
		Use:    "package [dir]",
		Short:  "Write the self-update description for a directory of release binaries.",
		Args:   cobra.MaximumNArgs(1),
		Hidden: true,
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			options := &packager.Options{
				ConfigPath:   configPath,
				Dir:          dir,
				UpdateFolder: updateFolder,
				Version:      releaseVersion,
			}

			return packager.Run(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	packageCmd.Flags().StringVarP(&updateFolder, "update-folder", "u", "", "URL where release files will be uploaded")
	packageCmd.Flags().StringVar(&releaseVersion, "release-version", "", "version to publish (defaults to this build)")

	rootCmd.AddCommand(packageCmd)
}
