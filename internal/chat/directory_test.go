package chat_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/Tyrowin/linechat/internal/chat"
)

// TestDirectoryRegisterUnique verifies that concurrent registrations of one
// name admit exactly one winner.
func TestDirectoryRegisterUnique(t *testing.T) {
	d := chat.NewUserDirectory()

	const contenders = 16
	results := make(chan error, contenders)

	var wg sync.WaitGroup
	wg.Add(contenders)
	for i := 0; i < contenders; i++ {
		go func() {
			defer wg.Done()
			results <- d.Register("alice", newRecorder())
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case !errors.Is(err, chat.ErrNameTaken):
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("Expected exactly one registration to succeed, got %d", wins)
	}
}

// TestDirectoryUnregisterOwnerOnly checks that a stale session cannot release
// a name now owned by someone else.
func TestDirectoryUnregisterOwnerOnly(t *testing.T) {
	d := chat.NewUserDirectory()
	first := newRecorder()
	second := newRecorder()

	if err := d.Register("alice", first); err != nil {
		t.Fatal(err)
	}
	d.Unregister("alice", first)
	if d.Taken("alice") {
		t.Fatal("Name should be free after owner unregistered")
	}

	if err := d.Register("alice", second); err != nil {
		t.Fatal(err)
	}
	d.Unregister("alice", first)

	peer, ok := d.Lookup("alice")
	if !ok || peer != second {
		t.Error("Stale unregister removed the current owner")
	}
	if d.Len() != 1 {
		t.Errorf("Expected 1 user, got %d", d.Len())
	}
}
