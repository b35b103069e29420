package chat_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Tyrowin/linechat/internal/chat"
)

// assertModeratorsSubset fails the test if any moderator of room is not a member.
func assertModeratorsSubset(t *testing.T, rr *chat.RoomRegistry, room, anyMember string) {
	t.Helper()

	_, members, err := rr.Members(anyMember)
	if err != nil {
		return
	}
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	for _, mod := range rr.Moderators(room) {
		if !set[mod] {
			t.Errorf("moderator %q of %s is not a member (members %v)", mod, room, members)
		}
	}
}

// TestJoinCreatesRoomWithFounderModerator verifies the founder-moderator rule.
func TestJoinCreatesRoomWithFounderModerator(t *testing.T) {
	rr := chat.NewRoomRegistry()

	res, err := rr.Join("lobby", "alice")
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if !res.Created {
		t.Error("Expected first join to create the room")
	}
	if !rr.HasMod("lobby", "alice") {
		t.Error("Founder should be a moderator")
	}

	res, err = rr.Join("lobby", "bob")
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if res.Created {
		t.Error("Second join should not create the room")
	}
	if rr.HasMod("lobby", "bob") {
		t.Error("Second member should not be a moderator")
	}
	if diff := cmp.Diff([]string{"alice", "bob"}, res.Members); diff != "" {
		t.Errorf("Members mismatch (-want +got):\n%s", diff)
	}
}

// TestJoinRejectsInvalidRoomNames checks that bad names cause no state change.
func TestJoinRejectsInvalidRoomNames(t *testing.T) {
	tests := []struct {
		name string
		room string
	}{
		{name: "empty", room: ""},
		{name: "command prefix", room: "/lobby"},
		{name: "punctuation", room: "lob-by"},
		{name: "space", room: "the lobby"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := chat.NewRoomRegistry()
			_, err := rr.Join(tt.room, "alice")

			var verr *chat.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if len(rr.Rooms()) != 0 {
				t.Errorf("Expected no rooms, got %v", rr.Rooms())
			}
			if _, ok := rr.RoomOf("alice"); ok {
				t.Error("User should not occupy a room after a rejected join")
			}
		})
	}
}

// TestJoinSameRoomTwice verifies set semantics for membership.
func TestJoinSameRoomTwice(t *testing.T) {
	rr := chat.NewRoomRegistry()
	if _, err := rr.Join("lobby", "alice"); err != nil {
		t.Fatal(err)
	}

	_, err := rr.Join("lobby", "alice")
	var verr *chat.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	infos := rr.Rooms()
	if len(infos) != 1 || infos[0].Members != 1 {
		t.Errorf("Expected lobby with one member, got %v", infos)
	}
}

// TestJoinLeavesPreviousRoom checks the implicit leave on join.
func TestJoinLeavesPreviousRoom(t *testing.T) {
	rr := chat.NewRoomRegistry()
	mustJoin(t, rr, "lobby", "alice")
	mustJoin(t, rr, "lobby", "bob")

	res, err := rr.Join("kitchen", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if res.Left == nil {
		t.Fatal("Expected a departure from lobby")
	}
	if res.Left.Room != "lobby" || res.Left.Deleted {
		t.Errorf("Unexpected departure: %+v", *res.Left)
	}
	if diff := cmp.Diff([]string{"bob"}, res.Left.Remaining); diff != "" {
		t.Errorf("Remaining mismatch (-want +got):\n%s", diff)
	}
	if rr.HasMod("lobby", "alice") {
		t.Error("Moderator status should be dropped on leave")
	}
	if room, _ := rr.RoomOf("alice"); room != "kitchen" {
		t.Errorf("Expected alice in kitchen, got %q", room)
	}
}

// TestLeaveEvictsEmptyRoom verifies registry eviction.
func TestLeaveEvictsEmptyRoom(t *testing.T) {
	rr := chat.NewRoomRegistry()
	mustJoin(t, rr, "lobby", "alice")
	mustJoin(t, rr, "lobby", "bob")

	d, err := rr.Leave("alice")
	if err != nil {
		t.Fatal(err)
	}
	if d.Deleted {
		t.Error("Room with a remaining member must not be deleted")
	}

	d, err = rr.Leave("bob")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Deleted {
		t.Error("Expected room to be deleted after last member left")
	}
	if len(rr.Rooms()) != 0 {
		t.Errorf("Expected no rooms, got %v", rr.Rooms())
	}
}

// TestLeaveWithoutRoom checks the StateError path.
func TestLeaveWithoutRoom(t *testing.T) {
	rr := chat.NewRoomRegistry()

	_, err := rr.Leave("alice")
	var serr *chat.StateError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected StateError, got %v", err)
	}
}

// TestKickAndModPermissions verifies that only moderators mutate membership.
func TestKickAndModPermissions(t *testing.T) {
	rr := chat.NewRoomRegistry()
	mustJoin(t, rr, "lobby", "alice")
	mustJoin(t, rr, "lobby", "bob")
	mustJoin(t, rr, "lobby", "carol")

	var perr *chat.PermissionError
	if _, err := rr.Kick("bob", "alice"); !errors.As(err, &perr) {
		t.Fatalf("Expected PermissionError for non-moderator kick, got %v", err)
	}
	if _, _, err := rr.GiveMod("bob", "carol"); !errors.As(err, &perr) {
		t.Fatalf("Expected PermissionError for non-moderator mod, got %v", err)
	}
	if rr.HasMod("lobby", "carol") {
		t.Error("Rejected /mod must not grant rights")
	}

	if _, _, err := rr.GiveMod("alice", "bob"); err != nil {
		t.Fatalf("GiveMod failed: %v", err)
	}
	if !rr.HasMod("lobby", "bob") {
		t.Error("bob should be a moderator")
	}

	res, err := rr.Kick("bob", "alice")
	if err != nil {
		t.Fatalf("Kick failed: %v", err)
	}
	if diff := cmp.Diff([]string{"alice", "bob", "carol"}, res.Audience); diff != "" {
		t.Errorf("Audience mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bob", "carol"}, res.Remaining); diff != "" {
		t.Errorf("Remaining mismatch (-want +got):\n%s", diff)
	}
	if _, ok := rr.RoomOf("alice"); ok {
		t.Error("Kicked user should no longer occupy a room")
	}
	if rr.HasMod("lobby", "alice") {
		t.Error("Kicked moderator should lose moderator status")
	}
	assertModeratorsSubset(t, rr, "lobby", "bob")
}

// TestKickNonMember checks that kicking outsiders reports NotFound.
func TestKickNonMember(t *testing.T) {
	rr := chat.NewRoomRegistry()
	mustJoin(t, rr, "lobby", "alice")
	mustJoin(t, rr, "kitchen", "bob")

	var nf *chat.NotFoundError
	if _, err := rr.Kick("alice", "bob"); !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
	if _, _, err := rr.GiveMod("alice", "bob"); !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
	if room, _ := rr.RoomOf("bob"); room != "kitchen" {
		t.Errorf("bob should still be in kitchen, got %q", room)
	}
}

// TestKickLastMemberEvictsRoom covers a moderator kicking themselves.
func TestKickLastMemberEvictsRoom(t *testing.T) {
	rr := chat.NewRoomRegistry()
	mustJoin(t, rr, "lobby", "alice")

	res, err := rr.Kick("alice", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Deleted {
		t.Error("Expected room to be deleted")
	}
	if len(rr.Rooms()) != 0 {
		t.Errorf("Expected no rooms, got %v", rr.Rooms())
	}
}

// TestRoomsListingIsSorted checks the /rooms data source.
func TestRoomsListingIsSorted(t *testing.T) {
	rr := chat.NewRoomRegistry()
	mustJoin(t, rr, "zoo", "alice")
	mustJoin(t, rr, "attic", "bob")
	mustJoin(t, rr, "zoo", "carol")

	want := []chat.RoomInfo{
		{Name: "attic", Members: 1},
		{Name: "zoo", Members: 2},
	}
	if diff := cmp.Diff(want, rr.Rooms()); diff != "" {
		t.Errorf("Rooms mismatch (-want +got):\n%s", diff)
	}
}

// TestConcurrentJoinLeave churns many users through a few rooms and checks
// that the registry ends consistent. Run with -race.
func TestConcurrentJoinLeave(t *testing.T) {
	rr := chat.NewRoomRegistry()
	rooms := []string{"a", "b", "c"}

	const numUsers = 20
	const rounds = 50

	var wg sync.WaitGroup
	wg.Add(numUsers)
	for i := 0; i < numUsers; i++ {
		go func(id int) {
			defer wg.Done()
			user := fmt.Sprintf("user%d", id)
			for r := 0; r < rounds; r++ {
				_, _ = rr.Join(rooms[(id+r)%len(rooms)], user)
				if r%3 == 0 {
					_, _ = rr.Leave(user)
				}
			}
			_, _ = rr.Leave(user)
		}(i)
	}
	wg.Wait()

	if infos := rr.Rooms(); len(infos) != 0 {
		t.Errorf("Expected every room evicted, got %v", infos)
	}
}

// TestConcurrentFoundersOfSameRoom checks that exactly one joiner founds a room.
func TestConcurrentFoundersOfSameRoom(t *testing.T) {
	rr := chat.NewRoomRegistry()

	const numUsers = 10
	created := make(chan bool, numUsers)

	var wg sync.WaitGroup
	wg.Add(numUsers)
	for i := 0; i < numUsers; i++ {
		go func(id int) {
			defer wg.Done()
			res, err := rr.Join("lobby", fmt.Sprintf("user%d", id))
			if err != nil {
				t.Errorf("Join failed: %v", err)
				return
			}
			created <- res.Created
		}(i)
	}
	wg.Wait()
	close(created)

	founders := 0
	for c := range created {
		if c {
			founders++
		}
	}
	if founders != 1 {
		t.Errorf("Expected exactly one founder, got %d", founders)
	}
	if mods := rr.Moderators("lobby"); len(mods) != 1 {
		t.Errorf("Expected one moderator, got %v", mods)
	}
}

func mustJoin(t *testing.T, rr *chat.RoomRegistry, room, user string) {
	t.Helper()
	if _, err := rr.Join(room, user); err != nil {
		t.Fatalf("Join(%q, %q) failed: %v", room, user, err)
	}
}
