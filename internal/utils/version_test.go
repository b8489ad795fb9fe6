package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVersion(t *testing.T) {
	for _, v := range []string{"1.0.0", "v2.10.3", "1.0.0-rc.1", "1.0.0+build.7"} {
		assert.NoError(t, ValidateVersion(v), v)
	}
	for _, v := range []string{"", "1.0", "one.two.three", "1.0.0 beta"} {
		assert.Error(t, ValidateVersion(v), v)
	}
}
