package enums

import "strings"

// StorageBackend selects where the cart slot lives.
type StorageBackend string

const (
	StorageBackendMemory StorageBackend = "memory"
	StorageBackendRedis  StorageBackend = "redis"
	StorageBackendSQL    StorageBackend = "sql"
)

var storageBackends = []StorageBackend{StorageBackendMemory, StorageBackendRedis, StorageBackendSQL}

func (s StorageBackend) String() string { return string(s) }

func (s StorageBackend) IsValid() bool { return member(storageBackends, s) }

// ParseStorageBackend ignores case and surrounding space.
func ParseStorageBackend(value string) (StorageBackend, error) {
	return parse("storage backend", storageBackends, strings.ToLower(strings.TrimSpace(value)))
}
