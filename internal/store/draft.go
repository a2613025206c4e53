package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"seelayer/internal/layer"
)

// Drafts holds unsaved editor state on disk so a crash or accidental close
// does not lose in-progress work. One file per editor slot, CBOR-encoded.
type Drafts struct {
	dir string
}

// NewDrafts returns a draft store rooted at dir.
func NewDrafts(dir string) (*Drafts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create draft directory: %w", err)
	}
	return &Drafts{dir: dir}, nil
}

func (d *Drafts) path(slot string) string {
	return filepath.Join(d.dir, slot+".draft")
}

// Save writes the record for a slot, replacing any previous draft.
func (d *Drafts) Save(slot string, rec layer.Record) error {
	data, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	tmp := d.path(slot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	return os.Rename(tmp, d.path(slot))
}

// Load reads the draft for a slot. ok is false when no draft exists.
func (d *Drafts) Load(slot string) (rec layer.Record, ok bool, err error) {
	data, err := os.ReadFile(d.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return layer.Record{}, false, nil
	}
	if err != nil {
		return layer.Record{}, false, fmt.Errorf("read draft: %w", err)
	}
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return layer.Record{}, false, fmt.Errorf("decode draft: %w", err)
	}
	return rec, true, nil
}

// Discard removes the draft for a slot. Missing drafts are not an error.
func (d *Drafts) Discard(slot string) error {
	err := os.Remove(d.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Slots lists the slot names that currently have drafts.
func (d *Drafts) Slots() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	var slots []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) == ".draft" {
			slots = append(slots, name[:len(name)-len(".draft")])
		}
	}
	return slots, nil
}
