package compose

import (
	"errors"
	"strings"
)

var ErrPolicyViolation = errors.New("compose: unfree capability not allowed by policy")

// unfreeAllowed reports whether an unfree capability id is covered by the
// profile's allow list.
func unfreeAllowed(id string, allow []string) bool {
	target := strings.TrimSpace(id)
	for _, raw := range allow {
		if strings.TrimSpace(raw) == target {
			return true
		}
	}
	return false
}
