package vaultengine

import (
	"encoding/json"
	"time"
)

// Metadata is the vault's decrypted metadata blob: creation/modification
// timestamps, item count, and the version vector sync reconciliation
// operates on.
type Metadata struct {
	CreatedAt      time.Time      `json:"created_at"`
	ModifiedAt     time.Time      `json:"modified_at"`
	ItemCount      int            `json:"item_count"`
	VersionVector  map[string]int `json:"version_vector"`
	ClientID       string         `json:"client_id"`
}

// newMetadata returns a fresh Metadata for a vault being created,
// stamped "now" with a version vector containing only this client at 0.
func newMetadata(clientID string) *Metadata {
	now := time.Now().UTC()
	return &Metadata{
		CreatedAt:     now,
		ModifiedAt:    now,
		ItemCount:     0,
		VersionVector: map[string]int{clientID: 0},
		ClientID:      clientID,
	}
}

// touch bumps ModifiedAt and increments this client's version-vector
// counter, called on every mutation per spec.md §3's lifecycle note.
func (m *Metadata) touch(clientID string, itemCount int) {
	m.ModifiedAt = time.Now().UTC()
	m.ItemCount = itemCount
	m.VersionVector[clientID]++
}

func marshalMetadata(m *Metadata) ([]byte, error) {
	return json.Marshal(m)
}

func unmarshalMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.VersionVector == nil {
		m.VersionVector = make(map[string]int)
	}
	return &m, nil
}
