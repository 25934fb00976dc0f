package syncreconciler

import (
	"testing"
	"time"

	"github.com/dodoapps/dodopass/internal/item"
	"github.com/dodoapps/dodopass/internal/vaultengine"
)

func meta(vv map[string]int) *vaultengine.Metadata {
	now := time.Now().UTC()
	return &vaultengine.Metadata{CreatedAt: now, ModifiedAt: now, VersionVector: vv, ClientID: "a"}
}

func TestCompareIdentical(t *testing.T) {
	a := meta(map[string]int{"a": 2, "b": 1})
	b := meta(map[string]int{"a": 2, "b": 1})
	if got := Compare(a, b); got != Identical {
		t.Fatalf("expected Identical, got %s", got)
	}
}

func TestCompareFastForward(t *testing.T) {
	local := meta(map[string]int{"a": 1, "b": 1})
	remote := meta(map[string]int{"a": 2, "b": 1})
	if got := Compare(local, remote); got != FastForward {
		t.Fatalf("expected FastForward, got %s", got)
	}
}

func TestCompareConflict(t *testing.T) {
	local := meta(map[string]int{"a": 2, "b": 0})
	remote := meta(map[string]int{"a": 1, "b": 1})
	if got := Compare(local, remote); got != Conflict {
		t.Fatalf("expected Conflict, got %s", got)
	}
}

func TestReconcileFastForwardAdoptsWinner(t *testing.T) {
	local := Side{Metadata: meta(map[string]int{"a": 1}), Items: nil}
	remoteItem := item.NewSecureNote("note", item.SecureNoteFields{Body: "x"})
	remote := Side{Metadata: meta(map[string]int{"a": 2}), Items: []*item.Record{remoteItem}}

	result, err := Reconcile(local, remote, "", "a")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.Decision != FastForward {
		t.Fatalf("expected FastForward, got %s", result.Decision)
	}
	if len(result.Items) != 1 || result.Items[0].ID != remoteItem.ID {
		t.Fatalf("expected remote item set to win, got %+v", result.Items)
	}
}

func TestReconcileMergeUnionsDisjointItems(t *testing.T) {
	// E5: local adds X at t=10, remote adds Y at t=11.
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	x := item.NewSecureNote("X", item.SecureNoteFields{Body: "local"})
	x.CreatedAt, x.ModifiedAt = base.Add(10*time.Second), base.Add(10*time.Second)
	y := item.NewSecureNote("Y", item.SecureNoteFields{Body: "remote"})
	y.CreatedAt, y.ModifiedAt = base.Add(11*time.Second), base.Add(11*time.Second)

	local := Side{Metadata: meta(map[string]int{"a": 2, "b": 0}), Items: []*item.Record{x}}
	remote := Side{Metadata: meta(map[string]int{"a": 1, "b": 1}), Items: []*item.Record{y}}

	result, err := Reconcile(local, remote, Merge, "a")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected both items present, got %+v", result.Items)
	}
	wantVV := map[string]int{"a": 3, "b": 1}
	for k, v := range wantVV {
		if result.Metadata.VersionVector[k] != v {
			t.Fatalf("version vector mismatch: got %+v want %+v", result.Metadata.VersionVector, wantVV)
		}
	}
}

func TestReconcileMergePicksNewerOnSharedID(t *testing.T) {
	older := item.NewSecureNote("shared", item.SecureNoteFields{Body: "older"})
	newerBody := *older
	newerBody.ModifiedAt = older.ModifiedAt.Add(time.Hour)
	newerBody.SecureNote = &item.SecureNoteFields{Body: "newer"}

	local := Side{Metadata: meta(map[string]int{"a": 1, "b": 1}), Items: []*item.Record{older}}
	remote := Side{Metadata: meta(map[string]int{"a": 0, "b": 2}), Items: []*item.Record{&newerBody}}

	result, err := Reconcile(local, remote, Merge, "a")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].SecureNote.Body != "newer" {
		t.Fatalf("expected the newer revision to win, got %+v", result.Items)
	}
}

func TestReconcileKeepBothDuplicatesConflictingItem(t *testing.T) {
	local := Side{
		Metadata: meta(map[string]int{"a": 1, "b": 1}),
		Items:    []*item.Record{item.NewSecureNote("shared", item.SecureNoteFields{Body: "local body"})},
	}
	sharedID := local.Items[0].ID
	remoteCopy := *local.Items[0]
	remoteCopy.SecureNote = &item.SecureNoteFields{Body: "remote body"}
	remoteCopy.ModifiedAt = local.Items[0].ModifiedAt.Add(time.Hour)
	remote := Side{
		Metadata: meta(map[string]int{"a": 0, "b": 2}),
		Items:    []*item.Record{&remoteCopy},
	}

	result, err := Reconcile(local, remote, KeepBoth, "a")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected both revisions to survive under distinct ids, got %+v", result.Items)
	}
	foundOriginal := false
	for _, r := range result.Items {
		if r.ID == sharedID {
			foundOriginal = true
		}
	}
	if !foundOriginal {
		t.Fatalf("expected the winning revision to keep the original id")
	}
}

// TestMergeIsCommutative is testable property #7: merging A into B
// yields the same item set as merging B into A, up to the id tiebreak.
func TestMergeIsCommutative(t *testing.T) {
	a := Side{
		Metadata: meta(map[string]int{"a": 3, "b": 1}),
		Items: []*item.Record{
			item.NewSecureNote("only-in-a", item.SecureNoteFields{Body: "a"}),
		},
	}
	b := Side{
		Metadata: meta(map[string]int{"a": 1, "b": 3}),
		Items: []*item.Record{
			item.NewSecureNote("only-in-b", item.SecureNoteFields{Body: "b"}),
		},
	}

	ab, err := Reconcile(a, b, Merge, "a")
	if err != nil {
		t.Fatalf("reconcile a<-b: %v", err)
	}
	ba, err := Reconcile(b, a, Merge, "b")
	if err != nil {
		t.Fatalf("reconcile b<-a: %v", err)
	}
	if len(ab.Items) != len(ba.Items) {
		t.Fatalf("commutativity violated: %d items vs %d items", len(ab.Items), len(ba.Items))
	}
	abIDs := make(map[string]bool)
	for _, r := range ab.Items {
		abIDs[r.ID] = true
	}
	for _, r := range ba.Items {
		if !abIDs[r.ID] {
			t.Fatalf("item %s present in one merge order but not the other", r.ID)
		}
	}
}
