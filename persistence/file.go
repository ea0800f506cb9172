package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/recallmesh/core"
)

// FileLog stores the turn sequence as a human-readable JSON array. Saves
// write the full log to a temporary file in the same directory and rename it
// into place so a crash mid-write never corrupts the previous state.
type FileLog struct {
	path string
}

// NewFileLog creates a file-backed log at the given path. The file is created
// lazily on first save.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// record is the on-disk shape. Seq is a pointer so logs written by producers
// that only emit {role, content} can be told apart from ordinal zero.
type record struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Seq     *int   `json:"seq,omitempty"`
	Note    bool   `json:"note,omitempty"`
}

// Load implements Log. A missing file is an empty log.
func (f *FileLog) Load(_ context.Context) ([]core.Turn, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read memory file %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode memory file %s: %w", f.path, err)
	}
	return recordsToTurns(records)
}

// Save implements Log with an atomic full rewrite.
func (f *FileLog) Save(_ context.Context, turns []core.Turn) error {
	records := make([]record, len(turns))
	for i, t := range turns {
		seq := t.Seq
		records[i] = record{Role: string(t.Role), Content: t.Content, Seq: &seq, Note: t.Note}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory log: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".memory-*.json")
	if err != nil {
		return fmt.Errorf("create temp memory file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write memory file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close memory file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace memory file %s: %w", f.path, err)
	}
	return nil
}

// Close implements Log.
func (f *FileLog) Close() error { return nil }

// recordsToTurns converts persisted records, validating roles. Records that
// carry no ordinal (logs produced by older or foreign writers) get ordinals
// reassigned in append order, with synthetic turns recognized by position and
// summary marker.
func recordsToTurns(records []record) ([]core.Turn, error) {
	missing := false
	for _, r := range records {
		if r.Seq == nil {
			missing = true
			break
		}
	}

	turns := make([]core.Turn, 0, len(records))
	next := 0
	for i, r := range records {
		role, err := core.ParseRole(r.Role)
		if err != nil {
			return nil, fmt.Errorf("memory record %d: %w", i, err)
		}
		t := core.Turn{Role: role, Content: r.Content, Note: r.Note}
		switch {
		case !missing:
			t.Seq = *r.Seq
		case i == 0 && role == core.RoleSystem, t.IsSummary():
			t.Seq = core.SyntheticSeq
		default:
			t.Seq = next
			next++
		}
		turns = append(turns, t)
	}
	return turns, nil
}
