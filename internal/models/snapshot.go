package models

// Snapshot is a complete serialized copy of all three entity
// collections, used for backup and restore. Importing a snapshot is a
// destructive replace: every collection is cleared first, so a key
// absent from the snapshot leaves that collection empty.
type Snapshot struct {
	Friends  []Person  `json:"friends"`
	Groups   []Group   `json:"groups"`
	Expenses []Expense `json:"expenses"`
}
