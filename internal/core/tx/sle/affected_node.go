package sle

// NodeKind says what an invocation did to an entry. The values are the
// keys affected nodes are nested under in metadata JSON.
type NodeKind string

const (
	NodeCreated  NodeKind = "CreatedNode"
	NodeModified NodeKind = "ModifiedNode"
	NodeDeleted  NodeKind = "DeletedNode"
)

// AffectedNode is one entry touched by an invocation.
//
// NewFields is set for created entries. FinalFields holds the state after a
// modification or just before a deletion, and PreviousFields only the fields
// whose values changed.
type AffectedNode struct {
	Kind           NodeKind       `json:"node_type"`
	EntryType      string         `json:"entry_type"`
	Address        string         `json:"address"`
	NewFields      map[string]any `json:"new_fields,omitempty"`
	FinalFields    map[string]any `json:"final_fields,omitempty"`
	PreviousFields map[string]any `json:"previous_fields,omitempty"`
}
