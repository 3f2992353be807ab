package instance

import (
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

const (
	EnvWorkerID     = "STOREFRONT_WORKER_ID"
	defaultWorkerID = "worker-0"
)

var hostname = os.Hostname

// GetID identifies this background process in logs. STOREFRONT_WORKER_ID
// wins; otherwise the host name (the pod name on Kubernetes) is used.
func GetID() string {
	if id := env.Get(EnvWorkerID, ""); id != "" {
		return id
	}
	if host, err := hostname(); err == nil && host != "" {
		return host
	}
	return defaultWorkerID
}
