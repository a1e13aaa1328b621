package state

import (
	"testing"
	"time"
)

func newTestState() *OfficeState {
	return NewOfficeState(5, 20)
}

func TestNewOfficeState_FixedStations(t *testing.T) {
	s := newTestState()

	for i := 0; i < 5; i++ {
		if _, ok := s.GetComputer(string(rune('0' + i))); !ok {
			t.Errorf("Expected computer %d to exist", i)
		}
	}
	if _, ok := s.GetComputer("5"); ok {
		t.Error("Computer 5 should not exist in a 5-computer layout")
	}
	if _, ok := s.GetWhiteboard("19"); !ok {
		t.Error("Expected whiteboard 19 to exist")
	}
	if _, ok := s.GetWhiteboard("20"); ok {
		t.Error("Whiteboard 20 should not exist in a 20-whiteboard layout")
	}
}

func TestOfficeState_PlayerLifecycle(t *testing.T) {
	s := newTestState()

	s.AddPlayer("sess1", Player{Name: "alice", X: 10, Y: 20, Anim: "idle", WebRTCId: "rtc1"})

	p, ok := s.GetPlayer("sess1")
	if !ok {
		t.Fatal("GetPlayer should find the added player")
	}
	if p.Name != "alice" || p.X != 10 {
		t.Errorf("Player fields not stored, got name=%q x=%v", p.Name, p.X)
	}

	if err := s.UpdatePlayerTransform("sess1", 30, 40, "walk"); err != nil {
		t.Fatalf("UpdatePlayerTransform failed: %v", err)
	}
	if p.X != 30 || p.Y != 40 || p.Anim != "walk" {
		t.Errorf("Transform not applied: %+v", p)
	}

	if err := s.UpdatePlayerTransform("missing", 0, 0, ""); err != ErrPlayerNotFound {
		t.Errorf("Expected ErrPlayerNotFound, got %v", err)
	}
}

func TestOfficeState_FindPlayerByWebRTCId(t *testing.T) {
	s := newTestState()
	s.AddPlayer("sess1", Player{WebRTCId: "rtc1"})

	if id, ok := s.FindPlayerByWebRTCId("rtc1"); !ok || id != "sess1" {
		t.Errorf("Expected to find sess1, got %q ok=%v", id, ok)
	}
	if _, ok := s.FindPlayerByWebRTCId("rtc2"); ok {
		t.Error("Should not find a player for an unknown webRTC id")
	}
	// Empty ids never match each other.
	s.AddPlayer("sess2", Player{WebRTCId: ""})
	if _, ok := s.FindPlayerByWebRTCId(""); ok {
		t.Error("Empty webRTC id must not be treated as a duplicate")
	}
}

func TestOfficeState_ComputerMembership(t *testing.T) {
	s := newTestState()
	s.AddPlayer("sess1", Player{WebRTCId: "rtc1"})

	if err := s.ConnectComputer("2", "sess1", "rtc1"); err != nil {
		t.Fatalf("ConnectComputer failed: %v", err)
	}

	c, _ := s.GetComputer("2")
	if _, ok := c.ConnectedUser["sess1"]; !ok {
		t.Error("Session id missing from computer user set")
	}
	if _, ok := c.ConnectedWebRTCId["rtc1"]; !ok {
		t.Error("WebRTC id missing from computer media set")
	}

	if err := s.DisconnectComputer("2", "sess1", "rtc1"); err != nil {
		t.Fatalf("DisconnectComputer failed: %v", err)
	}
	if len(c.ConnectedUser) != 0 || len(c.ConnectedWebRTCId) != 0 {
		t.Error("Both membership sets must empty together")
	}

	if err := s.ConnectComputer("99", "sess1", "rtc1"); err != ErrComputerNotFound {
		t.Errorf("Expected ErrComputerNotFound, got %v", err)
	}
}

func TestOfficeState_ChatAppendOnly(t *testing.T) {
	s := newTestState()
	now := time.Now().UnixMilli()

	s.AppendChatMessage("sess1", "first", now)
	s.AppendChatMessage("sess2", "second", now+1)
	s.AppendChatMessage("sess1", "third", now+2)

	log := s.ChatMessages()
	if len(log) != 3 {
		t.Fatalf("Expected 3 chat messages, got %d", len(log))
	}
	for i, want := range []string{"first", "second", "third"} {
		if log[i].Content != want {
			t.Errorf("Chat order broken at %d: got %q want %q", i, log[i].Content, want)
		}
	}
}

func TestOfficeState_RemovePlayerSweepsMembership(t *testing.T) {
	s := newTestState()
	s.AddPlayer("sess1", Player{WebRTCId: "rtc1"})
	s.ConnectComputer("0", "sess1", "rtc1")
	s.ConnectComputer("3", "sess1", "rtc1")
	s.ConnectWhiteboard("7", "sess1")

	s.RemovePlayer("sess1")

	if _, ok := s.GetPlayer("sess1"); ok {
		t.Fatal("Player should be gone after RemovePlayer")
	}
	s.EachComputer(func(id string, c *Computer) {
		if _, ok := c.ConnectedUser["sess1"]; ok {
			t.Errorf("Computer %s still holds the session id", id)
		}
		if _, ok := c.ConnectedWebRTCId["rtc1"]; ok {
			t.Errorf("Computer %s still holds the webRTC id", id)
		}
	})
	s.EachWhiteboard(func(id string, w *Whiteboard) {
		if _, ok := w.ConnectedUser["sess1"]; ok {
			t.Errorf("Whiteboard %s still holds the session id", id)
		}
	})
}

func TestOfficeState_RemovePlayerIdempotent(t *testing.T) {
	s := newTestState()
	s.AddPlayer("sess1", Player{WebRTCId: "rtc1"})
	s.ConnectComputer("0", "sess1", "rtc1")

	s.RemovePlayer("sess1")
	vAfterFirst := s.Version()
	s.RemovePlayer("sess1")

	if s.PlayerCount() != 0 {
		t.Error("Player count should stay 0")
	}
	if s.Version() != vAfterFirst {
		t.Error("Second RemovePlayer must be a no-op, version changed")
	}
}

func TestOfficeState_VersionsAdvanceOnMutation(t *testing.T) {
	s := newTestState()
	v0 := s.Version()

	s.AddPlayer("sess1", Player{})
	if s.Version() <= v0 {
		t.Error("AddPlayer should bump the state version")
	}

	p, _ := s.GetPlayer("sess1")
	pv := p.Version()
	s.UpdatePlayerTransform("sess1", 1, 2, "run")
	if p.Version() <= pv {
		t.Error("Mutation should stamp the entity with a newer version")
	}

	removedBefore := s.RemovedPlayersSince(v0)
	if len(removedBefore) != 0 {
		t.Errorf("No removals expected yet, got %v", removedBefore)
	}
	mark := s.Version()
	s.RemovePlayer("sess1")
	removed := s.RemovedPlayersSince(mark)
	if len(removed) != 1 || removed[0] != "sess1" {
		t.Errorf("Expected removal of sess1 to be tracked, got %v", removed)
	}
}
