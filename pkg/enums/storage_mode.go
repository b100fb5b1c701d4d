package enums

// StorageMode reports where the order store is currently writing.
type StorageMode string

const (
	StorageModeDatabase StorageMode = "database"
	StorageModeMemory   StorageMode = "memory"
)

func (m StorageMode) String() string {
	return string(m)
}

// IsDegraded is true when orders only live in process memory.
func (m StorageMode) IsDegraded() bool {
	return m == StorageModeMemory
}
