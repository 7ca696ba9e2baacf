package tx

import (
	"encoding/json"
	"sort"

	"github.com/LeJamon/goListingd/internal/core/tx/sle"
)

// Metadata tracks changes made by an invocation
type Metadata struct {
	// AffectedNodes lists all entries that were created, modified, or deleted
	AffectedNodes []AffectedNode

	// TransactionResult is the result code
	TransactionResult Result
}

// AffectedNode is an alias for sle.AffectedNode
type AffectedNode = sle.AffectedNode

// MarshalJSON nests each node under its node type and orders nodes by address.
func (m Metadata) MarshalJSON() ([]byte, error) {
	output := make(map[string]any)

	sortedNodes := make([]AffectedNode, len(m.AffectedNodes))
	copy(sortedNodes, m.AffectedNodes)
	sort.Slice(sortedNodes, func(i, j int) bool {
		return sortedNodes[i].Address < sortedNodes[j].Address
	})

	affectedNodes := make([]map[string]any, 0, len(sortedNodes))
	for _, node := range sortedNodes {
		affectedNodes = append(affectedNodes, nestedNode(node))
	}
	output["affected_nodes"] = affectedNodes
	output["result"] = m.TransactionResult.String()

	return json.Marshal(output)
}

func nestedNode(n AffectedNode) map[string]any {
	inner := map[string]any{
		"entry_type": n.EntryType,
		"address":    n.Address,
	}
	if n.FinalFields != nil {
		inner["final_fields"] = n.FinalFields
	}
	if len(n.PreviousFields) > 0 {
		inner["previous_fields"] = n.PreviousFields
	}
	if n.NewFields != nil {
		inner["new_fields"] = n.NewFields
	}
	return map[string]any{string(n.Kind): inner}
}

// Node returns the first affected node at address, if any.
func (m *Metadata) Node(address string) (AffectedNode, bool) {
	if m == nil {
		return AffectedNode{}, false
	}
	for _, n := range m.AffectedNodes {
		if n.Address == address {
			return n, true
		}
	}
	return AffectedNode{}, false
}
