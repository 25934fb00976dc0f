// Package searchindex implements the vault's blind search index: an
// in-memory inverted index keyed by HMAC-SHA256(search_key, token)
// rather than the plaintext token, so a process-memory or swap
// inspection that misses the search key learns nothing about what a
// user has searched for or stored. The index is never persisted and is
// rebuilt from the decrypted item set on unlock and after every
// mutation.
package searchindex

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/dodoapps/dodopass/internal/item"
)

// Index maps a blinded token to the set of item IDs it appears in.
type Index struct {
	searchKey []byte
	postings  map[string]map[string]struct{}
	// favorite/modifiedAt are kept alongside for result ordering without
	// requiring the caller to re-supply the full item set on every query.
	favorite   map[string]bool
	modifiedAt map[string]int64
}

// New returns an empty Index keyed by searchKey. searchKey must be the
// vault's derived search key (cryptocore.KeySet.SearchKey), never the
// master key or password.
func New(searchKey []byte) *Index {
	return &Index{
		searchKey:  append([]byte(nil), searchKey...),
		postings:   make(map[string]map[string]struct{}),
		favorite:   make(map[string]bool),
		modifiedAt: make(map[string]int64),
	}
}

// blind computes the blind-index token for a search token.
func (idx *Index) blind(token string) string {
	mac := hmac.New(sha256.New, idx.searchKey)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Add indexes a record's tokens under its ID. Calling Add again for an
// ID that is already indexed is safe but does not remove stale
// postings — callers must Remove before re-Add on update.
func (idx *Index) Add(r *item.Record) {
	idx.favorite[r.ID] = r.Favorite
	idx.modifiedAt[r.ID] = r.ModifiedAt.Unix()
	for _, tok := range TokensForRecord(r) {
		key := idx.blind(tok)
		set, ok := idx.postings[key]
		if !ok {
			set = make(map[string]struct{})
			idx.postings[key] = set
		}
		set[r.ID] = struct{}{}
	}
}

// Remove deletes every posting for id. Used before re-indexing an
// updated record and when an item is deleted.
func (idx *Index) Remove(id string) {
	for key, set := range idx.postings {
		delete(set, id)
		if len(set) == 0 {
			delete(idx.postings, key)
		}
	}
	delete(idx.favorite, id)
	delete(idx.modifiedAt, id)
}

// Rebuild discards all postings and re-indexes every record in items.
// Called on unlock and may be called after any mutation instead of
// fine-grained Add/Remove bookkeeping.
func (idx *Index) Rebuild(items []*item.Record) {
	idx.postings = make(map[string]map[string]struct{})
	idx.favorite = make(map[string]bool)
	idx.modifiedAt = make(map[string]int64)
	for _, r := range items {
		idx.Add(r)
	}
}

// Query returns item IDs matching every token in the query (AND
// semantics across tokens), ordered favorite-first then most-recently
// modified first, matching spec.md §4.8's result ordering.
func (idx *Index) Query(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	var candidates map[string]struct{}
	for _, tok := range tokens {
		set := idx.postings[idx.blind(tok)]
		if candidates == nil {
			candidates = make(map[string]struct{}, len(set))
			for id := range set {
				candidates[id] = struct{}{}
			}
			continue
		}
		for id := range candidates {
			if _, ok := set[id]; !ok {
				delete(candidates, id)
			}
		}
	}

	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if idx.favorite[ids[i]] != idx.favorite[ids[j]] {
			return idx.favorite[ids[i]]
		}
		if idx.modifiedAt[ids[i]] != idx.modifiedAt[ids[j]] {
			return idx.modifiedAt[ids[i]] > idx.modifiedAt[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Len reports how many distinct blinded tokens are currently indexed.
func (idx *Index) Len() int {
	return len(idx.postings)
}
