package testutil

import (
	"os"
	"testing"
)

// RequireIntegration skips the test unless STOREFRONT_INTEGRATION=1.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("STOREFRONT_INTEGRATION") != "1" {
		t.Skip("set STOREFRONT_INTEGRATION=1 to run container-backed tests")
	}
}
