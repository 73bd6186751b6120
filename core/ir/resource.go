package ir

import (
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// ResourceID is an opaque token addressing one resource within a
// Document. IDs are unique within one Document's lifetime; no
// cross-document uniqueness is required since a ResourceMap never
// outlives its Document.
type ResourceID string

// NewResourceID generates a fresh random resource identifier.
func NewResourceID() ResourceID {
	return ResourceID("res-" + uuid.NewString())
}

// Resource is a binary asset (image, embedded file) carried alongside
// the tree. Nodes never embed binary data directly; they reference a
// resource by id via a property, so multiple nodes may share one
// resource.
type Resource struct {
	// MIMEType is the asset's media type (e.g. "image/png").
	MIMEType string `json:"mime_type"`

	// Data is the raw asset bytes.
	Data []byte `json:"data,omitempty"`
}

// Fingerprint returns the hex BLAKE3 hash of the resource bytes.
func (r Resource) Fingerprint() string {
	sum := blake3.Sum256(r.Data)
	return hex.EncodeToString(sum[:])
}

// ResourceMap holds a Document's binary assets, keyed by ResourceID and
// ordered by insertion. A dangling id (referenced by a node but absent
// from the map) reads as "resource absent"; it never panics a traversal
// or writer.
//
// The zero value is an empty map ready for use.
type ResourceMap struct {
	ids     []ResourceID
	entries map[ResourceID]Resource
	byHash  map[string]ResourceID
}

// Insert stores a resource under the given id, overwriting any previous
// entry for that id.
func (m *ResourceMap) Insert(id ResourceID, res Resource) {
	if m.entries == nil {
		m.entries = make(map[ResourceID]Resource)
		m.byHash = make(map[string]ResourceID)
	}
	if prev, exists := m.entries[id]; exists {
		// Drop the replaced payload's fingerprint so later Add calls
		// cannot dedup onto content that is no longer stored.
		if hash := prev.Fingerprint(); m.byHash[hash] == id {
			delete(m.byHash, hash)
		}
	} else {
		m.ids = append(m.ids, id)
	}
	m.entries[id] = res
	m.byHash[res.Fingerprint()] = id
}

// Add stores a resource under a freshly generated id and returns the id.
// Identical payloads are deduplicated: adding bytes already present
// returns the existing id instead of storing a second copy.
func (m *ResourceMap) Add(res Resource) ResourceID {
	if id, ok := m.byHash[res.Fingerprint()]; ok {
		return id
	}
	id := NewResourceID()
	m.Insert(id, res)
	return id
}

// Get returns the resource for an id and true if present.
func (m *ResourceMap) Get(id ResourceID) (Resource, bool) {
	res, ok := m.entries[id]
	return res, ok
}

// Has returns true if the id is present.
func (m *ResourceMap) Has(id ResourceID) bool {
	_, ok := m.entries[id]
	return ok
}

// Remove deletes an id and returns true if it was present. Node
// references to a removed id become dangling, which readers and writers
// treat as "resource absent."
func (m *ResourceMap) Remove(id ResourceID) bool {
	res, ok := m.entries[id]
	if !ok {
		return false
	}
	delete(m.entries, id)
	if m.byHash[res.Fingerprint()] == id {
		delete(m.byHash, res.Fingerprint())
	}
	for i, existing := range m.ids {
		if existing == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of resources.
func (m *ResourceMap) Len() int { return len(m.ids) }

// IsZero returns true if the map is empty. Used by encoding/json for
// the omitzero tag option.
func (m ResourceMap) IsZero() bool { return len(m.ids) == 0 }

// IDs returns the resource ids in insertion order.
func (m *ResourceMap) IDs() []ResourceID {
	ids := make([]ResourceID, len(m.ids))
	copy(ids, m.ids)
	return ids
}

// Clone returns a copy of the map. Resource payload bytes are shared,
// not copied; resources are treated as immutable once inserted.
func (m *ResourceMap) Clone() ResourceMap {
	if len(m.ids) == 0 {
		return ResourceMap{}
	}
	c := ResourceMap{
		ids:     make([]ResourceID, len(m.ids)),
		entries: make(map[ResourceID]Resource, len(m.entries)),
		byHash:  make(map[string]ResourceID, len(m.byHash)),
	}
	copy(c.ids, m.ids)
	for id, res := range m.entries {
		c.entries[id] = res
	}
	for h, id := range m.byHash {
		c.byHash[h] = id
	}
	return c
}

// resourceEntry is the JSON shape of one resource.
type resourceEntry struct {
	ID       ResourceID `json:"id"`
	MIMEType string     `json:"mime_type"`
	Data     []byte     `json:"data,omitempty"`
}

// MarshalJSON encodes the map as an array of entries in insertion
// order. Payload bytes are base64-encoded by encoding/json.
func (m ResourceMap) MarshalJSON() ([]byte, error) {
	entries := make([]resourceEntry, 0, len(m.ids))
	for _, id := range m.ids {
		res := m.entries[id]
		entries = append(entries, resourceEntry{ID: id, MIMEType: res.MIMEType, Data: res.Data})
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes an array of entries, preserving order.
func (m *ResourceMap) UnmarshalJSON(data []byte) error {
	var entries []resourceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*m = ResourceMap{}
	for _, e := range entries {
		m.Insert(e.ID, Resource{MIMEType: e.MIMEType, Data: e.Data})
	}
	return nil
}
