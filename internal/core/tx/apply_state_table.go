package tx

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/types"
)

var (
	ErrUndeclaredAccount = errors.New("account not declared by instruction")
	ErrReadOnlyAccount   = errors.New("account declared read-only")
	ErrEntryExists       = errors.New("entry already exists")
	ErrEntryErased       = errors.New("entry not found (deleted)")
)

// Action represents the type of modification to a ledger entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

// TrackedEntry represents a ledger entry being tracked for changes
type TrackedEntry struct {
	Action   Action
	Original []byte // nil for inserts
	Current  []byte
}

// StateChange is one write produced by a successful invocation.
type StateChange struct {
	Key    [32]byte
	Data   []byte
	Delete bool
}

// ApplyStateTable wraps a LedgerView, confines access to the accounts an
// instruction declared and buffers every write until Apply. Discarding the
// table discards the invocation.
type ApplyStateTable struct {
	base     LedgerView
	items    map[[32]byte]*TrackedEntry
	declared map[types.Address]bool // value is writability
}

// NewApplyStateTable creates a table over base restricted to metas. A nil
// metas slice leaves the table unrestricted.
func NewApplyStateTable(base LedgerView, metas []AccountMeta) *ApplyStateTable {
	t := &ApplyStateTable{
		base:  base,
		items: make(map[[32]byte]*TrackedEntry),
	}
	if metas != nil {
		t.declared = make(map[types.Address]bool, len(metas))
		for _, m := range metas {
			t.declared[m.Address] = t.declared[m.Address] || m.Writable
		}
	}
	return t
}

func (t *ApplyStateTable) checkRead(k keylet.Keylet) error {
	if t.declared == nil {
		return nil
	}
	if _, ok := t.declared[k.Address()]; !ok {
		return fmt.Errorf("%w: %s", ErrUndeclaredAccount, k.Address())
	}
	return nil
}

func (t *ApplyStateTable) checkWrite(k keylet.Keylet) error {
	if t.declared == nil {
		return nil
	}
	writable, ok := t.declared[k.Address()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndeclaredAccount, k.Address())
	}
	if !writable {
		return fmt.Errorf("%w: %s", ErrReadOnlyAccount, k.Address())
	}
	return nil
}

// Read reads a ledger entry, tracking it as cached
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	if err := t.checkRead(k); err != nil {
		return nil, err
	}
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return nil, nil
		}
		return entry.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}
	return data, nil
}

// Exists checks if an entry exists
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if err := t.checkRead(k); err != nil {
		return false, err
	}
	if entry, exists := t.items[k.Key]; exists {
		return entry.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if err := t.checkWrite(k); err != nil {
		return err
	}
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action != ActionErase {
			return ErrEntryExists
		}
		// Re-inserting a deleted entry becomes a modify
		entry.Action = ActionModify
		entry.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}

	t.items[k.Key] = &TrackedEntry{
		Action:  ActionInsert,
		Current: data,
	}
	return nil
}

// Update modifies an existing entry
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if err := t.checkWrite(k); err != nil {
		return err
	}
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return ErrEntryErased
		}
		if entry.Action == ActionCache {
			entry.Action = ActionModify
		}
		entry.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%w: %s", sle.ErrEntryNotFound, k)
	}
	t.items[k.Key] = &TrackedEntry{
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes an entry
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if err := t.checkWrite(k); err != nil {
		return err
	}
	if entry, exists := t.items[k.Key]; exists {
		switch entry.Action {
		case ActionErase:
			return ErrEntryErased
		case ActionInsert:
			// insert then erase leaves no trace
			delete(t.items, k.Key)
			return nil
		}
		// Current keeps the state just before deletion
		entry.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%w: %s", sle.ErrEntryNotFound, k)
	}
	t.items[k.Key] = &TrackedEntry{
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}
	return nil
}

// IsErased returns true if the entry at the given key has been erased.
func (t *ApplyStateTable) IsErased(k keylet.Keylet) bool {
	if entry, exists := t.items[k.Key]; exists {
		return entry.Action == ActionErase
	}
	return false
}

// ForEach iterates over base state. Buffered writes are not visible.
func (t *ApplyStateTable) ForEach(fn func(key [32]byte, data []byte) bool) error {
	return t.base.ForEach(fn)
}

// Apply returns the buffered writes in key order together with the
// metadata describing them. The base view is left untouched.
func (t *ApplyStateTable) Apply() ([]StateChange, *Metadata, error) {
	keys := make([][32]byte, 0, len(t.items))
	for key := range t.items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	metadata := &Metadata{AffectedNodes: make([]sle.AffectedNode, 0)}
	var changes []StateChange

	for _, key := range keys {
		entry := t.items[key]
		switch entry.Action {
		case ActionCache:
			continue

		case ActionInsert:
			node, err := buildCreatedNode(key, entry.Current)
			if err != nil {
				return nil, nil, err
			}
			metadata.AffectedNodes = append(metadata.AffectedNodes, node)
			changes = append(changes, StateChange{Key: key, Data: entry.Current})

		case ActionModify:
			if bytes.Equal(entry.Original, entry.Current) {
				continue
			}
			node, err := buildModifiedNode(key, entry.Original, entry.Current)
			if err != nil {
				return nil, nil, err
			}
			metadata.AffectedNodes = append(metadata.AffectedNodes, node)
			changes = append(changes, StateChange{Key: key, Data: entry.Current})

		case ActionErase:
			node, err := buildDeletedNode(key, entry.Original, entry.Current)
			if err != nil {
				return nil, nil, err
			}
			metadata.AffectedNodes = append(metadata.AffectedNodes, node)
			changes = append(changes, StateChange{Key: key, Delete: true})
		}
	}
	return changes, metadata, nil
}

func buildCreatedNode(key [32]byte, data []byte) (sle.AffectedNode, error) {
	node := sle.AffectedNode{
		Kind:      sle.NodeCreated,
		EntryType: sle.EntryType(data).String(),
		Address:   types.Address(key).String(),
		NewFields: make(map[string]any),
	}
	fields, err := sle.Fields(data)
	if err != nil {
		return node, err
	}
	for name, value := range fields {
		if !sle.IsDefaultValue(value) {
			node.NewFields[name] = value
		}
	}
	return node, nil
}

func buildModifiedNode(key [32]byte, original, current []byte) (sle.AffectedNode, error) {
	node := sle.AffectedNode{
		Kind:      sle.NodeModified,
		EntryType: sle.EntryType(current).String(),
		Address:   types.Address(key).String(),
	}
	origFields, err := sle.Fields(original)
	if err != nil {
		return node, err
	}
	currFields, err := sle.Fields(current)
	if err != nil {
		return node, err
	}
	node.PreviousFields = changedFields(origFields, currFields)
	node.FinalFields = currFields
	return node, nil
}

// buildDeletedNode describes an erased entry. original is the state when
// first read, current the state just before deletion.
func buildDeletedNode(key [32]byte, original, current []byte) (sle.AffectedNode, error) {
	node := sle.AffectedNode{
		Kind:      sle.NodeDeleted,
		EntryType: sle.EntryType(current).String(),
		Address:   types.Address(key).String(),
	}
	origFields, err := sle.Fields(original)
	if err != nil {
		return node, err
	}
	currFields, err := sle.Fields(current)
	if err != nil {
		return node, err
	}
	node.PreviousFields = changedFields(origFields, currFields)
	node.FinalFields = currFields
	return node, nil
}

// changedFields returns the original values of fields that differ in curr.
func changedFields(orig, curr map[string]any) map[string]any {
	out := make(map[string]any)
	for name, origValue := range orig {
		if currValue, ok := curr[name]; !ok || fmt.Sprint(origValue) != fmt.Sprint(currValue) {
			out[name] = origValue
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
