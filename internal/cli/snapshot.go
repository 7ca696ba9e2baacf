package cli

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/storage/snapshot"
)

var (
	diffShowAll    bool
	diffFilterType string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export, import and compare ledger state snapshots",
	Long: `Snapshots hold every ledger entry as an lz4-compressed msgpack stream with
a digest trailer. The server must be stopped while exporting or importing.`,
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the ledger state to a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		program, err := cfg.Ledger.Program()
		if err != nil {
			return err
		}
		n, err := openState(cfg)
		if err != nil {
			return err
		}
		defer n.Close()

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		w := bufio.NewWriter(f)
		sum, err := snapshot.Export(w, n.state, program)
		if err == nil {
			err = w.Flush()
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(args[0])
			return err
		}
		n.log.Infof("Exported %d entries to %s", sum.Entries, args[0])
		return printJSON(cmd, summaryJSON(sum))
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a snapshot into an empty ledger state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		program, err := cfg.Ledger.Program()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := openState(cfg)
		if err != nil {
			return err
		}
		defer n.Close()

		sum, err := snapshot.Import(bufio.NewReader(f), n.state, program)
		if err != nil {
			return err
		}
		n.log.Infof("Imported %d entries from %s", sum.Entries, args[0])
		return printJSON(cmd, summaryJSON(sum))
	},
}

var snapshotDiffCmd = &cobra.Command{
	Use:   "diff <file1> <file2>",
	Short: "Compare two snapshots",
	Long: `Compare two snapshot files and show differences:
- Added entries (in file2 but not file1)
- Removed entries (in file1 but not file2)
- Modified entries with field-by-field diff

The command fails when the snapshots differ.

Examples:
    listingd snapshot diff before.snap after.snap
    listingd snapshot diff before.snap after.snap --filter listing`,
	Args: cobra.ExactArgs(2),
	RunE: runSnapshotDiff,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotExportCmd, snapshotImportCmd, snapshotDiffCmd)

	snapshotDiffCmd.Flags().BoolVarP(&diffShowAll, "all", "a", false, "show unchanged entries too")
	snapshotDiffCmd.Flags().StringVarP(&diffFilterType, "filter", "f", "", "only show entries of this type (wallet, asset, balance, listing)")
}

func summaryJSON(sum *snapshot.Summary) map[string]interface{} {
	return map[string]interface{}{
		"program_id": sum.ProgramID.String(),
		"applied":    sum.Applied,
		"created_at": sum.CreatedAt,
		"entries":    sum.Entries,
		"digest":     strings.ToUpper(hex.EncodeToString(sum.Digest[:])),
	}
}

// stateEntry is one decoded snapshot entry.
type stateEntry struct {
	Key    string
	Type   string
	Data   []byte
	Fields map[string]any
}

type modifiedEntry struct {
	Old, New    stateEntry
	ChangedKeys []string
}

// stateDiff is the difference between two snapshots.
type stateDiff struct {
	Added, Removed, Unchanged []stateEntry
	Modified                  []modifiedEntry
}

func (d *stateDiff) empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

func loadSnapshotEntries(path string) (map[string]stateEntry, *snapshot.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	entries := make(map[string]stateEntry)
	sum, err := snapshot.Walk(bufio.NewReader(f), func(key [32]byte, data []byte) error {
		e := stateEntry{
			Key:  strings.ToUpper(hex.EncodeToString(key[:])),
			Type: sle.EntryType(data).String(),
			Data: data,
		}
		// undecodable entries still compare by bytes
		e.Fields, _ = sle.Fields(data)
		entries[e.Key] = e
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, sum, nil
}

func diffStates(old, new map[string]stateEntry) *stateDiff {
	d := &stateDiff{}
	for key, e2 := range new {
		e1, ok := old[key]
		switch {
		case !ok:
			d.Added = append(d.Added, e2)
		case string(e1.Data) != string(e2.Data):
			d.Modified = append(d.Modified, modifiedEntry{
				Old:         e1,
				New:         e2,
				ChangedKeys: changedKeys(e1.Fields, e2.Fields),
			})
		default:
			d.Unchanged = append(d.Unchanged, e2)
		}
	}
	for key, e1 := range old {
		if _, ok := new[key]; !ok {
			d.Removed = append(d.Removed, e1)
		}
	}

	byKey := func(s []stateEntry) {
		sort.Slice(s, func(i, j int) bool { return s[i].Key < s[j].Key })
	}
	byKey(d.Added)
	byKey(d.Removed)
	byKey(d.Unchanged)
	sort.Slice(d.Modified, func(i, j int) bool { return d.Modified[i].New.Key < d.Modified[j].New.Key })
	return d
}

func changedKeys(old, new map[string]any) []string {
	if old == nil || new == nil {
		return nil
	}
	all := make(map[string]bool)
	for k := range old {
		all[k] = true
	}
	for k := range new {
		all[k] = true
	}
	var changed []string
	for k := range all {
		ov, ook := old[k]
		nv, nok := new[k]
		if ook != nok || !reflect.DeepEqual(ov, nv) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// filter keeps the entries of one type.
func (d *stateDiff) filter(entryType string) {
	keep := func(s []stateEntry) []stateEntry {
		out := s[:0]
		for _, e := range s {
			if strings.EqualFold(e.Type, entryType) {
				out = append(out, e)
			}
		}
		return out
	}
	d.Added = keep(d.Added)
	d.Removed = keep(d.Removed)
	d.Unchanged = keep(d.Unchanged)
	mods := d.Modified[:0]
	for _, m := range d.Modified {
		if strings.EqualFold(m.New.Type, entryType) {
			mods = append(mods, m)
		}
	}
	d.Modified = mods
}

var errSnapshotsDiffer = errors.New("snapshots differ")

func runSnapshotDiff(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	state1, sum1, err := loadSnapshotEntries(args[0])
	if err != nil {
		return err
	}
	state2, sum2, err := loadSnapshotEntries(args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "File 1: %s (%d entries, %d applied)\n", args[0], sum1.Entries, sum1.Applied)
	fmt.Fprintf(out, "File 2: %s (%d entries, %d applied)\n", args[1], sum2.Entries, sum2.Applied)
	if sum1.ProgramID != sum2.ProgramID {
		fmt.Fprintf(out, "Program ids differ: %s vs %s\n", sum1.ProgramID, sum2.ProgramID)
	}
	fmt.Fprintln(out)

	d := diffStates(state1, state2)
	if diffFilterType != "" {
		d.filter(diffFilterType)
		fmt.Fprintf(out, "Filtered by type: %s\n\n", diffFilterType)
	}

	fmt.Fprintln(out, "--- Summary ---")
	fmt.Fprintf(out, "Added:     %d\n", len(d.Added))
	fmt.Fprintf(out, "Removed:   %d\n", len(d.Removed))
	fmt.Fprintf(out, "Modified:  %d\n", len(d.Modified))
	fmt.Fprintf(out, "Unchanged: %d\n", len(d.Unchanged))

	printEntries(out, "ADDED", "+", d.Added)
	printEntries(out, "REMOVED", "-", d.Removed)
	if len(d.Modified) > 0 {
		fmt.Fprintln(out, "\n=== MODIFIED ===")
		for _, m := range d.Modified {
			fmt.Fprintf(out, "[~] %s (%s) changed: %s\n", m.New.Key, m.New.Type, strings.Join(m.ChangedKeys, ", "))
			for _, k := range m.ChangedKeys {
				fmt.Fprintf(out, "    %s: %v -> %v\n", k, m.Old.Fields[k], m.New.Fields[k])
			}
		}
	}
	if diffShowAll {
		printEntries(out, "UNCHANGED", "=", d.Unchanged)
	}

	if !d.empty() {
		return errSnapshotsDiffer
	}
	return nil
}

func printEntries(out io.Writer, title, mark string, entries []stateEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(out, "\n=== %s ===\n", title)
	for _, e := range entries {
		fmt.Fprintf(out, "[%s] %s (%s)\n", mark, e.Key, e.Type)
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "    %s: %v\n", k, e.Fields[k])
		}
	}
}
