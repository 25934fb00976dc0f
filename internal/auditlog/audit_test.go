package auditlog

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	e := Entry{
		Timestamp: time.Now().UTC(),
		Category:  CategoryVault,
		EventType: EventVaultUnlock,
		Level:     LevelInfo,
		Outcome:   OutcomeSuccess,
	}
	e.Sign(key)
	if err := e.Verify(key); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifyDetectsTamper(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	e := Entry{
		Timestamp: time.Now().UTC(),
		Category:  CategoryVault,
		EventType: EventVaultUnlock,
		Level:     LevelInfo,
		Outcome:   OutcomeSuccess,
	}
	e.Sign(key)
	e.Outcome = OutcomeFailure
	if err := e.Verify(key); err == nil {
		t.Fatal("expected tampered entry to fail verification")
	}
}

func TestLogAppendsAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	key := []byte("0123456789abcdef0123456789abcdef")

	logger, err := New(path, key)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := logger.Log(Entry{
			Category:  CategoryVault,
			EventType: EventItemAdd,
			Level:     LevelInfo,
			Outcome:   OutcomeSuccess,
			ItemTitle: "GitHub",
		}); err != nil {
			t.Fatalf("log: %v", err)
		}
	}

	entries, err := ReadAll(path)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	result, err := VerifyAll(path, key)
	if err != nil {
		t.Fatalf("verify all: %v", err)
	}
	if !result.Ok() {
		t.Fatalf("expected all entries valid, got invalid: %v", result.InvalidEntries)
	}
}

func TestVerifyAllDetectsWrongKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	key := []byte("0123456789abcdef0123456789abcdef")

	logger, _ := New(path, key)
	_ = logger.Log(Entry{Category: CategoryAuth, EventType: EventVaultUnlock, Level: LevelInfo, Outcome: OutcomeSuccess})

	wrongKey := []byte("ffffffffffffffffffffffffffffffff")
	result, err := VerifyAll(path, wrongKey)
	if err != nil {
		t.Fatalf("verify all: %v", err)
	}
	if result.Ok() {
		t.Fatal("expected verification failure with wrong key")
	}
}

func TestRotateStartsFreshLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	key := []byte("0123456789abcdef0123456789abcdef")

	logger, _ := New(path, key)
	_ = logger.Log(Entry{Category: CategoryVault, EventType: EventVaultLock, Level: LevelInfo, Outcome: OutcomeSuccess})
	if err := logger.Rotate(); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if logger.currentSize != 0 {
		t.Fatalf("expected size reset after rotate, got %d", logger.currentSize)
	}

	entries, err := ReadAll(path)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected fresh empty log after rotate, got %d entries", len(entries))
	}

	oldEntries, err := ReadAll(path + ".old")
	if err != nil {
		t.Fatalf("read old log: %v", err)
	}
	if len(oldEntries) != 1 {
		t.Fatalf("expected rotated-out log to retain 1 entry, got %d", len(oldEntries))
	}
}
