// Package syncreconciler compares two decrypted vault replicas by their
// version vectors and, on divergence, applies the caller's chosen
// resolution policy to produce a single merged item set.
package syncreconciler

import (
	"fmt"
	"strings"

	"github.com/dodoapps/dodopass/internal/item"
	"github.com/dodoapps/dodopass/internal/vaultengine"
)

// Decision classifies the relationship between two version vectors.
type Decision string

const (
	// Identical means both replicas carry the same vector: no-op.
	Identical Decision = "identical"
	// FastForward means one vector dominates the other: the loser can
	// be replaced wholesale with the winner's state.
	FastForward Decision = "fast_forward"
	// Conflict means the vectors are incomparable: a resolution policy
	// is required.
	Conflict Decision = "conflict"
)

// Resolution is the caller's chosen response to a Conflict.
type Resolution string

const (
	KeepLocal  Resolution = "keep_local"
	KeepRemote Resolution = "keep_remote"
	Merge      Resolution = "merge"
	KeepBoth   Resolution = "keep_both"
)

// Side is one replica's decrypted state: its metadata and item set.
type Side struct {
	Metadata *vaultengine.Metadata
	Items    []*item.Record
}

// Result is the outcome of a reconciliation: the decision reached and,
// for anything other than Identical, the item set and metadata to
// adopt.
type Result struct {
	Decision Decision
	Metadata *vaultengine.Metadata
	Items    []*item.Record
}

// Compare inspects two version vectors and classifies their
// relationship per spec.md §4.9: identical, one dominating the other,
// or concurrent (incomparable).
func Compare(local, remote *vaultengine.Metadata) Decision {
	localDominates := dominates(local.VersionVector, remote.VersionVector)
	remoteDominates := dominates(remote.VersionVector, local.VersionVector)

	switch {
	case localDominates && remoteDominates:
		return Identical
	case localDominates || remoteDominates:
		return FastForward
	default:
		return Conflict
	}
}

// dominates reports whether a's counters are all >= b's (treating an
// absent client id as 0).
func dominates(a, b map[string]int) bool {
	for client, bCount := range b {
		if a[client] < bCount {
			return false
		}
	}
	return true
}

// winner returns local if its version vector dominates remote's, and
// remote otherwise (caller must only invoke this after Compare returns
// FastForward or Identical).
func winner(local, remote Side) *Side {
	if dominates(local.Metadata.VersionVector, remote.Metadata.VersionVector) {
		return &local
	}
	return &remote
}

// Reconcile compares local and remote and, for Identical or
// FastForward, resolves automatically. For Conflict, resolution must
// be one of the four caller-selectable policies; an empty resolution on
// a Conflict returns the Conflict result unresolved so the caller can
// prompt before calling Reconcile again with a choice.
func Reconcile(local, remote Side, resolution Resolution, localClientID string) (*Result, error) {
	decision := Compare(local.Metadata, remote.Metadata)

	switch decision {
	case Identical:
		return &Result{Decision: Identical, Metadata: local.Metadata, Items: local.Items}, nil
	case FastForward:
		w := winner(local, remote)
		return &Result{Decision: FastForward, Metadata: w.Metadata, Items: w.Items}, nil
	case Conflict:
		if resolution == "" {
			return &Result{Decision: Conflict}, nil
		}
		return resolveConflict(local, remote, resolution, localClientID)
	default:
		return nil, fmt.Errorf("unreachable decision %q", decision)
	}
}

func resolveConflict(local, remote Side, resolution Resolution, localClientID string) (*Result, error) {
	switch resolution {
	case KeepLocal:
		return &Result{Decision: Conflict, Metadata: local.Metadata, Items: local.Items}, nil
	case KeepRemote:
		return &Result{Decision: Conflict, Metadata: remote.Metadata, Items: remote.Items}, nil
	case Merge:
		items := mergeItems(local.Items, remote.Items)
		meta := mergedMetadata(local.Metadata, remote.Metadata, localClientID)
		meta.ItemCount = len(items)
		return &Result{Decision: Conflict, Metadata: meta, Items: items}, nil
	case KeepBoth:
		items := keepBothItems(local.Items, remote.Items)
		meta := mergedMetadata(local.Metadata, remote.Metadata, localClientID)
		meta.ItemCount = len(items)
		return &Result{Decision: Conflict, Metadata: meta, Items: items}, nil
	default:
		return nil, fmt.Errorf("unknown resolution %q", resolution)
	}
}

// mergeItems implements the per-item merge rule from spec.md §4.9: an
// id present on only one side is kept as-is; an id present on both
// sides keeps the one with the greater modified_at. Record carries no
// client_id of its own and both records share the id, so on a
// modified_at tie the local record is kept.
func mergeItems(local, remote []*item.Record) []*item.Record {
	byID := make(map[string]*item.Record, len(local)+len(remote))
	for _, r := range local {
		byID[r.ID] = r
	}
	for _, r := range remote {
		existing, ok := byID[r.ID]
		if !ok {
			byID[r.ID] = r
			continue
		}
		byID[r.ID] = pickNewer(existing, r)
	}
	return item.SortByID(flatten(byID))
}

func pickNewer(a, b *item.Record) *item.Record {
	if a.ModifiedAt.After(b.ModifiedAt) {
		return a
	}
	if b.ModifiedAt.After(a.ModifiedAt) {
		return b
	}
	if strings.Compare(a.ID, b.ID) >= 0 {
		return a
	}
	return b
}

// keepBothItems merges non-conflicting ids as mergeItems does, but
// conflicting ids are duplicated under a fresh suffixed id on the
// losing side rather than dropped.
func keepBothItems(local, remote []*item.Record) []*item.Record {
	byID := make(map[string]*item.Record, len(local)+len(remote))
	var extra []*item.Record

	for _, r := range local {
		byID[r.ID] = r
	}
	for _, r := range remote {
		existing, ok := byID[r.ID]
		if !ok {
			byID[r.ID] = r
			continue
		}
		winner := pickNewer(existing, r)
		loser := existing
		if winner == existing {
			loser = r
		}
		dup := *loser
		dup.ID = loser.ID + "-conflict-" + shortHash(loser)
		byID[winner.ID] = winner
		extra = append(extra, &dup)
	}

	all := flatten(byID)
	all = append(all, extra...)
	return item.SortByID(all)
}

func flatten(byID map[string]*item.Record) []*item.Record {
	out := make([]*item.Record, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	return out
}

// shortHash derives a short, deterministic suffix for a duplicated
// conflict item so repeated reconciliations of the same inputs produce
// the same fresh id rather than a new random one each time.
func shortHash(r *item.Record) string {
	h := 0
	for _, c := range r.ID + r.ModifiedAt.String() {
		h = h*31 + int(c)
	}
	if h < 0 {
		h = -h
	}
	return fmt.Sprintf("%06x", h%0xFFFFFF)
}

// mergedMetadata carries the pointwise max of both version vectors plus
// an increment on the local client's entry, per spec.md §4.9.
func mergedMetadata(local, remote *vaultengine.Metadata, localClientID string) *vaultengine.Metadata {
	merged := make(map[string]int, len(local.VersionVector)+len(remote.VersionVector))
	for k, v := range local.VersionVector {
		merged[k] = v
	}
	for k, v := range remote.VersionVector {
		if v > merged[k] {
			merged[k] = v
		}
	}
	merged[localClientID]++

	modifiedAt := local.ModifiedAt
	if remote.ModifiedAt.After(modifiedAt) {
		modifiedAt = remote.ModifiedAt
	}

	return &vaultengine.Metadata{
		CreatedAt:     local.CreatedAt,
		ModifiedAt:    modifiedAt,
		VersionVector: merged,
		ClientID:      localClientID,
	}
}
