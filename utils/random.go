package utils

import "github.com/google/uuid"

// GenerateDeviceID returns a short random gate identifier for devices
// that were provisioned without one.
func GenerateDeviceID() string {
	return "gate-" + uuid.New().String()[:8]
}
