package session

import (
	"sync"
	"testing"
)

func TestResolveUnknownKey(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Resolve("proj"); ok {
		t.Fatal("unknown key resolved")
	}
}

func TestCommitAndResolve(t *testing.T) {
	r := NewRegistry()
	r.Commit("proj", "sid-1", "")

	l, ok := r.Resolve("proj")
	if !ok {
		t.Fatal("committed key did not resolve")
	}
	if l.SessionID != "sid-1" {
		t.Errorf("session id = %q", l.SessionID)
	}
	if l.ResumeID() != "sid-1" {
		t.Errorf("resume id = %q, want session id fallback", l.ResumeID())
	}
}

func TestCommitNativeID(t *testing.T) {
	r := NewRegistry()
	r.Commit("proj", "sid-1", "th-1")

	l, _ := r.Resolve("proj")
	if l.ResumeID() != "th-1" {
		t.Errorf("resume id = %q, want native th-1", l.ResumeID())
	}
}

func TestCommitPreservesNativeID(t *testing.T) {
	r := NewRegistry()
	r.Commit("proj", "sid-1", "th-1")

	// A later turn that learned no native id must not erase the known one.
	r.Commit("proj", "sid-1", "")
	l, _ := r.Resolve("proj")
	if l.NativeResumeID != "th-1" {
		t.Errorf("native id = %q, want preserved th-1", l.NativeResumeID)
	}

	// A fresh session id starts over.
	r.Commit("proj", "sid-2", "")
	l, _ = r.Resolve("proj")
	if l.NativeResumeID != "" {
		t.Errorf("native id = %q, want empty for new session", l.NativeResumeID)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Commit("proj", "sid-1", "")
	r.Remove("proj")
	r.Remove("proj")

	if _, ok := r.Resolve("proj"); ok {
		t.Fatal("removed key still resolves")
	}
	if r.Len() != 0 {
		t.Errorf("len = %d", r.Len())
	}
}

func TestSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Commit("a", "sid-a", "")
	r.Commit("b", "sid-b", "th-b")

	snap := r.Snapshot()
	if len(snap) != 2 || snap["a"] != "sid-a" || snap["b"] != "sid-b" {
		t.Errorf("snapshot = %v", snap)
	}

	// The snapshot is a copy.
	snap["a"] = "mutated"
	if l, _ := r.Resolve("a"); l.SessionID != "sid-a" {
		t.Error("snapshot mutation leaked into registry")
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if a == "" || a == b {
		t.Errorf("ids not unique: %q, %q", a, b)
	}
}

func TestLockKeySerializesSameKey(t *testing.T) {
	r := NewRegistry()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	unlock := r.LockKey("proj")

	wg.Add(1)
	go func() {
		defer wg.Done()
		u := r.LockKey("proj")
		defer u()
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	}()

	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	unlock()
	wg.Wait()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v", order)
	}
}

func TestLockKeyIndependentKeys(t *testing.T) {
	r := NewRegistry()
	unlockA := r.LockKey("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		u := r.LockKey("b")
		u()
		close(done)
	}()
	<-done
}
