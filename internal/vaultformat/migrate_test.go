package vaultformat

import (
	"errors"
	"testing"
)

func TestMigratorNoOpAtCurrentVersion(t *testing.T) {
	m := NewMigrator()
	domain := map[string]int{"item_count": 3}

	out, err := m.Migrate(domain, 1, 1)
	if err != nil {
		t.Fatalf("migrate 1->1: %v", err)
	}
	if out.(map[string]int)["item_count"] != 3 {
		t.Fatal("no-op migration must not alter domain objects")
	}
}

func TestMigratorRejectsBogusVersions(t *testing.T) {
	m := NewMigrator()

	if _, err := m.Migrate(nil, 0, 1); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion for from=0, got %v", err)
	}
	if _, err := m.Migrate(nil, 1, 99); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion for to=99, got %v", err)
	}
	if _, err := m.Migrate(nil, 2, 1); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion for downgrade, got %v", err)
	}
}

func TestMigratorChainsRegisteredSteps(t *testing.T) {
	m := &Migrator{steps: map[int]Step{}}
	m.Register(1, func(d DomainObjects) (DomainObjects, error) {
		return d.(int) + 1, nil
	})

	// Simulate a hypothetical version 2 existing so 1->2 can run even
	// though CurrentVersion is still 1 in this package build — exercised
	// via the lower-level steps map directly rather than Migrate, which
	// bounds toVersion by CurrentVersion by design.
	out, err := m.steps[1](5)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if out.(int) != 6 {
		t.Fatalf("expected 6, got %v", out)
	}
}
