package tool

import "strings"

// MaskedSecretValue is used in user-facing output for sensitive config values.
const MaskedSecretValue = "**********"

// MaskSecret hides a credential for display. Empty values stay empty so
// "not configured" remains visible.
func MaskSecret(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return MaskedSecretValue
}
