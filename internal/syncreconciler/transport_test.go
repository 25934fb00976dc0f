package syncreconciler

import (
	"errors"
	"testing"
)

var errBoom = errors.New("boom")

type fakeExecutor struct {
	calls [][]string
	err   error
}

func (f *fakeExecutor) RunNoOutput(name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.err
}

func TestTransportPullInvokesRcloneCopyto(t *testing.T) {
	exec := &fakeExecutor{}
	tr := NewTransportWithExecutor("gdrive:vault/vault.enc", exec)

	if err := tr.Pull("/tmp/vault.enc"); err != nil {
		t.Fatalf("pull: %v", err)
	}

	if len(exec.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(exec.calls))
	}
	want := []string{"rclone", "copyto", "gdrive:vault/vault.enc", "/tmp/vault.enc"}
	if !equalSlices(exec.calls[0], want) {
		t.Fatalf("unexpected command: %v", exec.calls[0])
	}
}

func TestTransportPushInvokesRcloneCopyto(t *testing.T) {
	exec := &fakeExecutor{}
	tr := NewTransportWithExecutor("gdrive:vault/vault.enc", exec)

	if err := tr.Push("/tmp/vault.enc"); err != nil {
		t.Fatalf("push: %v", err)
	}

	want := []string{"rclone", "copyto", "/tmp/vault.enc", "gdrive:vault/vault.enc"}
	if !equalSlices(exec.calls[0], want) {
		t.Fatalf("unexpected command: %v", exec.calls[0])
	}
}

func TestTransportWithCustomExecutorIsAlwaysConsideredInstalled(t *testing.T) {
	tr := NewTransportWithExecutor("remote:path", &fakeExecutor{})
	if !tr.IsRcloneInstalled() {
		t.Fatal("expected a custom executor to be treated as installed")
	}
}

func TestTransportPropagatesExecutorError(t *testing.T) {
	exec := &fakeExecutor{err: errBoom}
	tr := NewTransportWithExecutor("remote:path", exec)

	if err := tr.Pull("/tmp/vault.enc"); err == nil {
		t.Fatal("expected pull to propagate the executor error")
	}
	if err := tr.Push("/tmp/vault.enc"); err == nil {
		t.Fatal("expected push to propagate the executor error")
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
