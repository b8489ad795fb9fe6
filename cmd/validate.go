package cmd

import (
	"encoding/json"
	"fmt"

	"example.com/backstage/services/devicetype/internal/core"
	"example.com/backstage/services/devicetype/internal/devicetype"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var validateQuiet bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate device-type documents",
	Long: `Parses each device-type document and prints the definition it builds.
Exits non-zero if any document is rejected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVarP(&validateQuiet, "quiet", "q", false, "Only report failures")
}

func runValidate(cmd *cobra.Command, paths []string) error {
	opts := core.BuildOptions{DefaultClaimable: cfg.DeviceTypes.DefaultClaimable}
	out := cmd.OutOrStdout()

	failed := 0
	for _, path := range paths {
		doc, err := devicetype.LoadFile(path)
		if err != nil {
			failed++
			logger.WithError(err).WithField("file", path).Error("Device type document rejected")
			continue
		}

		def := core.BuildDefinition(doc, opts)
		logger.WithFields(logrus.Fields{
			"file":        path,
			"device_type": def.Name,
			"features":    len(def.Features),
		}).Info("Device type document is valid")

		if validateQuiet {
			continue
		}
		data, err := json.MarshalIndent(def, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", path, err)
		}
		fmt.Fprintln(out, string(data))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d device type documents rejected", failed, len(paths))
	}
	return nil
}
