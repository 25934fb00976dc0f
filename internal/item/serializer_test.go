package item

import (
	"strings"
	"testing"
)

func TestMarshalRecordIsKeySorted(t *testing.T) {
	r := NewLogin("Example", LoginFields{Username: "u", Password: "p"})
	encoded, err := MarshalRecord(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(encoded)
	// "category" sorts before "created_at" which sorts before "favorite";
	// spot-check ordering rather than asserting the full byte layout.
	if strings.Index(s, `"category"`) > strings.Index(s, `"created_at"`) {
		t.Fatalf("expected sorted keys, got %s", s)
	}
}

func TestMarshalUnmarshalRoundTripLogin(t *testing.T) {
	r := NewLogin("GitHub", LoginFields{
		Username: "octocat",
		Password: "hunter2",
		URLs:     []string{"https://github.com"},
	})
	r.Tags = NormalizeTags([]string{"Dev", "work"})

	encoded, err := MarshalRecord(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := UnmarshalRecord(encoded)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Login.Username != r.Login.Username || decoded.Login.Password != r.Login.Password {
		t.Fatalf("login fields did not round-trip: %+v", decoded.Login)
	}
	if len(decoded.Tags) != 2 || decoded.Tags[0] != "dev" {
		t.Fatalf("tags did not round-trip normalized: %v", decoded.Tags)
	}
	if !decoded.CreatedAt.Equal(r.CreatedAt) {
		t.Fatalf("created_at did not round-trip: got %v want %v", decoded.CreatedAt, r.CreatedAt)
	}
}

func TestMarshalUnmarshalRoundTripAllCategories(t *testing.T) {
	records := []*Record{
		NewLogin("login", LoginFields{Username: "u"}),
		NewSecureNote("note", SecureNoteFields{Body: "secret text"}),
		NewCreditCard("card", CreditCardFields{Cardholder: "A", Number: "4111111111111111"}),
		NewIdentity("id", IdentityFields{FullName: "A Name"}),
	}
	for _, r := range records {
		encoded, err := MarshalRecord(r)
		if err != nil {
			t.Fatalf("%s: marshal: %v", r.Category, err)
		}
		decoded, err := UnmarshalRecord(encoded)
		if err != nil {
			t.Fatalf("%s: unmarshal: %v", r.Category, err)
		}
		if decoded.Category != r.Category {
			t.Fatalf("category mismatch: got %s want %s", decoded.Category, r.Category)
		}
	}
}

func TestUnmarshalPreservesUnknownCategory(t *testing.T) {
	raw := []byte(`{"id":"x","category":"future_category","title":"t","favorite":false,"tags":[],"created_at":"2026-01-01T00:00:00Z","modified_at":"2026-01-01T00:00:00Z","fields":{"foo":"bar"}}`)
	decoded, err := UnmarshalRecord(raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Unknown["foo"] != "bar" {
		t.Fatalf("expected unknown fields preserved, got %v", decoded.Unknown)
	}
}

func TestMarshalItemsRoundTrip(t *testing.T) {
	items := []*Record{
		NewLogin("a", LoginFields{Username: "u1"}),
		NewSecureNote("b", SecureNoteFields{Body: "x"}),
	}
	encoded, err := MarshalItems(items)
	if err != nil {
		t.Fatalf("marshal items: %v", err)
	}
	decoded, err := UnmarshalItems(encoded)
	if err != nil {
		t.Fatalf("unmarshal items: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 items, got %d", len(decoded))
	}
}

func TestSortByIDIsDeterministic(t *testing.T) {
	a := NewLogin("a", LoginFields{Username: "u"})
	b := NewLogin("b", LoginFields{Username: "u"})
	a.ID, b.ID = "bbb", "aaa"
	sorted := SortByID([]*Record{a, b})
	if sorted[0].ID != "aaa" || sorted[1].ID != "bbb" {
		t.Fatalf("expected sorted by id, got %s, %s", sorted[0].ID, sorted[1].ID)
	}
}
