package domain

import "time"

// ChangeOperation identifies one persisted item mutation kind.
type ChangeOperation string

// ChangeOperationCreate and related constants define supported operations.
const (
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationMove   ChangeOperation = "move"
)

// ChangeEvent records one item mutation in board history.
type ChangeEvent struct {
	ID         int64
	BoardID    string
	ItemID     string
	Operation  ChangeOperation
	Metadata   map[string]string
	OccurredAt time.Time
}
