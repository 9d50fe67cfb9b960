package tool

import (
	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateRequestID returns the X-Request-ID value sent with every server call.
func GenerateRequestID() string {
	return "dv-" + uuid.NewString()
}
