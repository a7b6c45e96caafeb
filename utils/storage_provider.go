package utils

import (
	"os"
	"strings"
)

// StorageProviderGCS is the only provider exports can be uploaded to.
const StorageProviderGCS = "gcs"

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderGCS
	}
	return provider
}
