package searchindex

import (
	"testing"
	"time"

	"github.com/dodoapps/dodopass/internal/item"
)

func sampleItems() []*item.Record {
	a := item.NewLogin("GitHub", item.LoginFields{Username: "octocat", URLs: []string{"https://github.com/login"}})
	a.Favorite = true
	b := item.NewLogin("GitLab", item.LoginFields{Username: "octocat-alt", URLs: []string{"https://gitlab.com"}})
	b.ModifiedAt = time.Now().Add(time.Hour)
	return []*item.Record{a, b}
}

func TestQueryMatchesTitleToken(t *testing.T) {
	idx := New([]byte("search-key-32-bytes-aaaaaaaaaaa"))
	items := sampleItems()
	idx.Rebuild(items)

	got := idx.Query("github")
	if len(got) != 1 || got[0] != items[0].ID {
		t.Fatalf("expected match on github, got %v", got)
	}
}

func TestQueryIsBlindToPlaintextTokens(t *testing.T) {
	idx := New([]byte("search-key-32-bytes-aaaaaaaaaaa"))
	idx.Rebuild(sampleItems())

	for key := range idx.postings {
		if key == "github" || key == "gitlab" {
			t.Fatalf("posting key leaks plaintext token: %s", key)
		}
	}
}

func TestQueryFavoriteOrderedFirst(t *testing.T) {
	idx := New([]byte("search-key-32-bytes-aaaaaaaaaaa"))
	items := sampleItems()
	idx.Rebuild(items)

	got := idx.Query("octocat")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0] != items[0].ID {
		t.Fatalf("expected favorite item first, got %v", got)
	}
}

func TestRemoveDropsPostings(t *testing.T) {
	idx := New([]byte("search-key-32-bytes-aaaaaaaaaaa"))
	items := sampleItems()
	idx.Rebuild(items)
	idx.Remove(items[0].ID)

	got := idx.Query("github")
	if len(got) != 0 {
		t.Fatalf("expected no matches after remove, got %v", got)
	}
}

func TestQueryMultiTokenIsConjunctive(t *testing.T) {
	idx := New([]byte("search-key-32-bytes-aaaaaaaaaaa"))
	idx.Rebuild(sampleItems())

	got := idx.Query("octocat github")
	if len(got) != 1 {
		t.Fatalf("expected conjunctive match to narrow to 1, got %v", got)
	}
}

func TestDifferentSearchKeysProduceDifferentPostingKeys(t *testing.T) {
	items := sampleItems()
	idx1 := New([]byte("key-one-32-bytes-aaaaaaaaaaaaaaa"))
	idx2 := New([]byte("key-two-32-bytes-aaaaaaaaaaaaaaa"))
	idx1.Rebuild(items)
	idx2.Rebuild(items)

	for key := range idx1.postings {
		if _, ok := idx2.postings[key]; ok {
			t.Fatalf("expected disjoint posting keyspaces across search keys, collided on %s", key)
		}
	}
}
