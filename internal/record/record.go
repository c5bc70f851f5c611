package record

import (
	"encoding/json"
	"fmt"
)

// SyncStatus tells whether a record is known to be stored remotely.
// The zero value is StatusPending, so records decoded without a status need sync.
type SyncStatus uint8

const (
	StatusPending SyncStatus = iota
	StatusSynced
)

func (s SyncStatus) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	default:
		return "pending"
	}
}

func (s SyncStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SyncStatus) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = StatusPending
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sync status: %w", err)
	}

	switch raw {
	case "synced":
		*s = StatusSynced
	case "pending", "":
		*s = StatusPending
	default:
		return fmt.Errorf("sync status: unknown value %q", raw)
	}

	return nil
}

// Syncable is satisfied by every record type the engine replicates.
type Syncable[T any] interface {
	RecordID() string
	SyncState() SyncStatus
	WithSyncState(SyncStatus) T
}

// Entity names one replicated record type. The same key is used for local
// storage, the sync URL segment and the JSON envelope field.
type Entity string

const (
	EntityCategories   Entity = "categories"
	EntityProducts     Entity = "products"
	EntityTransactions Entity = "transactions"
	EntityExpenses     Entity = "expenses"
	EntityReports      Entity = "reports"
)

// PushOrder lists entities so that referenced records are pushed before the
// records referencing them.
var PushOrder = []Entity{
	EntityCategories,
	EntityProducts,
	EntityTransactions,
	EntityExpenses,
	EntityReports,
}

func (e Entity) String() string { return string(e) }

// IDs returns the ids of records in order.
func IDs[T Syncable[T]](records []T) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.RecordID()
	}

	return ids
}

// WithStatus returns a copy of records with every status set to s.
func WithStatus[T Syncable[T]](records []T, s SyncStatus) []T {
	out := make([]T, len(records))
	for i, r := range records {
		out[i] = r.WithSyncState(s)
	}

	return out
}
