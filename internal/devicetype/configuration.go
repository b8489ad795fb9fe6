// Package devicetype reads device-type configuration documents.
//
// A document declares one device type: its license, the push-notification
// provider used to reach enrolled devices, and the ordered feature list.
package devicetype

import "encoding/xml"

// Configuration is the parsed form of a device-type document.
type Configuration struct {
	XMLName                  xml.Name                  `xml:"DeviceTypeConfiguration"`
	Name                     string                    `xml:"name,attr"`
	Description              string                    `xml:"Description"`
	Claimable                *Claimable                `xml:"Claimable"`
	License                  *License                  `xml:"License"`
	ProvisioningConfig       *ProvisioningConfig       `xml:"ProvisioningConfig"`
	PushNotificationProvider *PushNotificationProvider `xml:"PushNotificationProvider"`
	Features                 Features                  `xml:"Features"`
	PolicyMonitoring         *PolicyMonitoring         `xml:"PolicyMonitoring"`
}

// Claimable overrides the service-wide claimable default when present.
type Claimable struct {
	Enabled bool `xml:"enabled,attr"`
}

// License is the end-user license shown during enrollment.
type License struct {
	Language string `xml:"Language"`
	Version  string `xml:"Version"`
	Text     string `xml:"Text"`
}

// ProvisioningConfig controls tenant visibility of the type.
type ProvisioningConfig struct {
	SharedWithAllTenants bool `xml:"SharedWithAllTenants"`
}

// PushNotificationProvider names the mechanism used to deliver operations.
type PushNotificationProvider struct {
	Type                string     `xml:"type,attr"`
	Scheduled           bool       `xml:"isScheduled,attr"`
	FileBasedProperties bool       `xml:"FileBasedProperties"`
	ConfigProperties    []Property `xml:"ConfigProperties>Property"`
}

// Property is a named provider setting.
type Property struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

// Features wraps the ordered feature list.
type Features struct {
	Feature []Feature `xml:"Feature"`
}

// Feature is a capability a device of this type exposes.
type Feature struct {
	Code        string     `xml:"code,attr"`
	Name        string     `xml:"Name"`
	Description string     `xml:"Description"`
	Operation   *Operation `xml:"Operation"`
}

// Operation describes how a feature is invoked over HTTP.
type Operation struct {
	Context string `xml:"context,attr"`
	Method  string `xml:"method,attr"`
	Type    string `xml:"type,attr"`
}

// PolicyMonitoring toggles compliance monitoring for the type.
type PolicyMonitoring struct {
	Enabled bool `xml:"enabled,attr"`
}

// Properties returns the provider settings as a map. Later duplicates win.
func (p *PushNotificationProvider) Properties() map[string]string {
	props := make(map[string]string, len(p.ConfigProperties))
	for _, prop := range p.ConfigProperties {
		props[prop.Name] = prop.Value
	}
	return props
}
