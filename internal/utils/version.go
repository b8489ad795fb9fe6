// services/devicetype/internal/utils/version.go
package utils

import (
	"fmt"
	"regexp"
)

var semverPattern = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(-[a-zA-Z0-9\-\.]+)?(\+[a-zA-Z0-9\-\.]+)?$`)

// ValidateVersion validates semantic version format (e.g., 1.2.3).
func ValidateVersion(version string) error {
	if !semverPattern.MatchString(version) {
		return fmt.Errorf("invalid version format: %s", version)
	}
	return nil
}
