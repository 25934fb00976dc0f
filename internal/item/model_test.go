package item

import "testing"

func TestNormalizeTagsDedupesAndLowercases(t *testing.T) {
	got := NormalizeTags([]string{"Work", "work", " Personal ", "", "personal"})
	want := []string{"personal", "work"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNewLoginValidates(t *testing.T) {
	r := NewLogin("GitHub", LoginFields{Username: "octocat", Password: "hunter2"})
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if r.ID == "" {
		t.Fatal("expected a generated id")
	}
}

func TestLoginRequiresUsernameOrPassword(t *testing.T) {
	r := NewLogin("Empty", LoginFields{})
	if err := r.Validate(); err == nil {
		t.Fatal("expected validation error for empty login")
	}
}

func TestCreditCardRequiresNumber(t *testing.T) {
	r := NewCreditCard("Visa", CreditCardFields{Cardholder: "A Name"})
	if err := r.Validate(); err == nil {
		t.Fatal("expected validation error for missing card number")
	}
}

func TestRotatePasswordAppendsHistoryAndCaps(t *testing.T) {
	l := &LoginFields{Password: "initial"}
	for i := 0; i < maxPasswordHistory+5; i++ {
		l.RotatePassword("password-" + string(rune('a'+i%26)))
	}
	if len(l.PasswordHistory) != maxPasswordHistory {
		t.Fatalf("expected history capped at %d, got %d", maxPasswordHistory, len(l.PasswordHistory))
	}
}

func TestParseCategoryCaseInsensitive(t *testing.T) {
	c, err := ParseCategory("LOGIN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != CategoryLogin {
		t.Fatalf("expected canonical lowercase category, got %q", c)
	}
}

func TestParseCategoryRejectsUnknown(t *testing.T) {
	if _, err := ParseCategory("bogus"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}
