package core

import (
	"fmt"

	"example.com/backstage/services/devicetype/internal/devicetype"
)

// BuildOptions carries the policy defaults applied while building definitions.
type BuildOptions struct {
	// DefaultClaimable applies when the document has no Claimable element.
	DefaultClaimable bool
}

// DefaultBuildOptions marks device types claimable unless their document says otherwise.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{DefaultClaimable: true}
}

// BuildDefinition maps a parsed device-type document onto runtime metadata.
// Features keep their declared order.
func BuildDefinition(cfg *devicetype.Configuration, opts BuildOptions) *DeviceTypeDefinition {
	def := &DeviceTypeDefinition{
		Name:        cfg.Name,
		Description: cfg.Description,
		Claimable:   opts.DefaultClaimable,
		Features:    make([]Feature, 0, len(cfg.Features.Feature)),
	}

	if def.Description == "" {
		def.Description = fmt.Sprintf("This is %s", cfg.Name)
	}
	if cfg.Claimable != nil {
		def.Claimable = cfg.Claimable.Enabled
	}

	if cfg.License != nil {
		def.License = License{
			Text:     cfg.License.Text,
			Language: cfg.License.Language,
			Version:  cfg.License.Version,
		}
	}

	for _, f := range cfg.Features.Feature {
		feature := Feature{
			Code:        f.Code,
			Name:        f.Name,
			Description: f.Description,
		}
		if f.Operation != nil {
			feature.Operation = &FeatureOperation{
				Context:     f.Operation.Context,
				Method:      f.Operation.Method,
				ContentType: f.Operation.Type,
			}
		}
		def.Features = append(def.Features, feature)
	}

	if p := cfg.PushNotificationProvider; p != nil {
		def.PushNotificationConfig = &PushNotificationConfig{
			Type:       p.Type,
			Scheduled:  p.Scheduled,
			Properties: p.Properties(),
		}
	}

	if cfg.ProvisioningConfig != nil {
		def.SharedWithAllTenants = cfg.ProvisioningConfig.SharedWithAllTenants
	}
	if cfg.PolicyMonitoring != nil {
		def.PolicyMonitoringEnabled = cfg.PolicyMonitoring.Enabled
	}

	return def
}
