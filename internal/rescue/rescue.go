// Package rescue holds the rescue case business object pushed to the
// dispatch API.
package rescue

import (
	"encoding/json"
	"fmt"
	"os"
)

// Rescue is one dispatch case. Attribute writes are tracked so a push can
// send only what changed since the last sync. Not safe for concurrent use.
type Rescue struct {
	caseID string
	attrs  map[string]any
	dirty  map[string]struct{}
}

// New creates a case. caseID may be empty while the API has not assigned
// one yet; such a case cannot be pushed.
func New(caseID string) *Rescue {
	return &Rescue{
		caseID: caseID,
		attrs:  make(map[string]any),
		dirty:  make(map[string]struct{}),
	}
}

// ID returns the case id assigned by the API, ok=false if none yet.
func (r *Rescue) ID() (string, bool) {
	return r.caseID, r.caseID != ""
}

// AssignID records the id the API assigned to this case.
func (r *Rescue) AssignID(id string) {
	r.caseID = id
}

// Set stores an attribute and marks it changed.
func (r *Rescue) Set(key string, value any) {
	r.attrs[key] = value
	r.dirty[key] = struct{}{}
}

// Get returns an attribute value.
func (r *Rescue) Get(key string) (any, bool) {
	v, ok := r.attrs[key]
	return v, ok
}

// Snapshot serializes the case: the full attribute state when full is
// true, otherwise only attributes changed since the last MarkSynced.
func (r *Rescue) Snapshot(full bool) map[string]any {
	out := make(map[string]any)
	if full {
		for k, v := range r.attrs {
			out[k] = v
		}
		return out
	}
	for k := range r.dirty {
		out[k] = r.attrs[k]
	}
	return out
}

// MarkSynced clears the change tracking after a successful push.
func (r *Rescue) MarkSynced() {
	r.dirty = make(map[string]struct{})
}

// caseFile is the on-disk JSON shape read by Load.
type caseFile struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}

// Load reads a case from a JSON file of the form
// {"id": "...", "attributes": {...}}. All attributes load as changed.
func Load(path string) (*Rescue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	var f caseFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse case file %s: %w", path, err)
	}

	r := New(f.ID)
	for k, v := range f.Attributes {
		r.Set(k, v)
	}
	return r, nil
}
