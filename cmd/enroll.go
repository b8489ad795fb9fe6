package cmd

import (
	"context"
	"fmt"
	"strings"

	"example.com/backstage/services/devicetype/internal/core"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	enrollType        string
	enrollID          string
	enrollOwner       string
	enrollName        string
	enrollDescription string
	enrollOwnership   string
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a device against a registered device type",
	Long: `Enrolls one device using the configured device store. Enrolling an
already enrolled device is reported and leaves the stored record unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnroll()
	},
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().StringVarP(&enrollType, "type", "t", "", "Device type name (required)")
	enrollCmd.Flags().StringVarP(&enrollID, "id", "i", "", "Device identifier (required)")
	enrollCmd.Flags().StringVarP(&enrollOwner, "owner", "o", "", "Device owner")
	enrollCmd.Flags().StringVarP(&enrollName, "name", "n", "", "Device display name")
	enrollCmd.Flags().StringVar(&enrollDescription, "description", "", "Device description")
	enrollCmd.Flags().StringVar(&enrollOwnership, "ownership", core.OwnershipBYOD, "Ownership model (BYOD or COPE)")
	_ = enrollCmd.MarkFlagRequired("type")
	_ = enrollCmd.MarkFlagRequired("id")
}

func runEnroll() error {
	ownership, ok := core.NormalizeOwnership(enrollOwnership)
	if !ok {
		return fmt.Errorf("invalid --ownership %q: want %s or %s", enrollOwnership, core.OwnershipBYOD, core.OwnershipCOPE)
	}

	if cfg.Database.Driver == "" {
		logger.Warn("No database driver configured, the enrollment will not outlive this command")
	}

	rt, err := buildRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.registry.Lookup(enrollType)
	if err != nil {
		return err
	}

	device := &core.Device{
		ID:          strings.TrimSpace(enrollID),
		Type:        svc.Type(),
		Name:        enrollName,
		Description: enrollDescription,
		Owner:       enrollOwner,
		Enrolment:   core.EnrolmentInfo{Ownership: ownership},
	}

	enrolled, err := svc.DeviceManager().EnrollDevice(context.Background(), device)
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"device_id":   device.ID,
		"device_type": device.Type,
		"enrolled":    enrolled,
	}).Info("Enrollment completed")
	return nil
}
