package models

// ChangeType is the kind of mutation a document service reports.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// ChangeEvent is emitted by a document service after a mutation.
type ChangeEvent struct {
	Type       ChangeType `json:"type"`
	ID         string     `json:"id,omitempty"`
	Collection string     `json:"collection"`
}
