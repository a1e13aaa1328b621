package replication

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/wfunc/officeserver/network"
	"github.com/wfunc/officeserver/session"
	"github.com/wfunc/officeserver/state"
)

// MockConnection captures every packet sent through it.
type MockConnection struct {
	packets []*network.Packet
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.packets = append(m.packets, &network.Packet{MsgID: msgID, Data: data})
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetIdleTimeout(d time.Duration)       {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func lastPatch(t *testing.T, conn *MockConnection) Patch {
	t.Helper()
	if len(conn.packets) == 0 {
		t.Fatal("No packet was sent")
	}
	var p Patch
	if err := json.Unmarshal(conn.packets[len(conn.packets)-1].Data, &p); err != nil {
		t.Fatalf("Failed to unmarshal patch: %v", err)
	}
	return p
}

func TestPatchReplicator_SyncFullIncludesEverything(t *testing.T) {
	st := state.NewOfficeState(5, 20)
	st.AddPlayer("sessA", state.Player{Name: "alice"})
	st.AppendChatMessage("sessA", "hello", time.Now().UnixMilli())

	rep := NewPatchReplicator()
	conn := &MockConnection{}
	sess := session.NewSession("sessA", conn)

	rep.SyncFull(sess, st)

	if conn.packets[0].MsgID != network.MsgTypeStateFull {
		t.Fatalf("Expected a full-state message, got id %d", conn.packets[0].MsgID)
	}
	patch := lastPatch(t, conn)
	if len(patch.Players) != 1 {
		t.Errorf("Full sync should carry the player, got %v", patch.Players)
	}
	// Untouched stations are part of the snapshot too.
	if len(patch.Computers) != 5 || len(patch.Whiteboards) != 20 {
		t.Errorf("Full sync should carry all stations, got %d computers %d whiteboards",
			len(patch.Computers), len(patch.Whiteboards))
	}
	if len(patch.Chat) != 1 || patch.Chat[0].Content != "hello" {
		t.Errorf("Full sync should carry the chat log, got %v", patch.Chat)
	}
}

func TestPatchReplicator_PublishSendsOnlyChanges(t *testing.T) {
	st := state.NewOfficeState(5, 20)
	st.AddPlayer("sessA", state.Player{Name: "alice", WebRTCId: "rtcA"})

	rep := NewPatchReplicator()
	conn := &MockConnection{}
	sess := session.NewSession("sessA", conn)
	rep.SyncFull(sess, st)
	sent := len(conn.packets)

	// No change, no packet.
	rep.Publish(st, []*session.Session{sess})
	if len(conn.packets) != sent {
		t.Fatal("Publish without mutations should send nothing")
	}

	st.ConnectComputer("2", "sessA", "rtcA")
	rep.Publish(st, []*session.Session{sess})
	if len(conn.packets) != sent+1 {
		t.Fatalf("Expected one patch packet, got %d new", len(conn.packets)-sent)
	}

	patch := lastPatch(t, conn)
	if conn.packets[len(conn.packets)-1].MsgID != network.MsgTypeStatePatch {
		t.Error("Incremental update should use the patch message id")
	}
	if len(patch.Computers) != 1 {
		t.Fatalf("Patch should carry only the touched computer, got %v", patch.Computers)
	}
	cv, ok := patch.Computers["2"]
	if !ok || len(cv.ConnectedUser) != 1 || cv.ConnectedUser[0] != "sessA" {
		t.Errorf("Computer 2 membership wrong in patch: %+v", cv)
	}
	if len(patch.Players) != 0 {
		t.Errorf("Unchanged players must not be in the patch, got %v", patch.Players)
	}
}

func TestPatchReplicator_RemovalsAreReplicated(t *testing.T) {
	st := state.NewOfficeState(5, 20)
	st.AddPlayer("sessA", state.Player{})
	st.AddPlayer("sessB", state.Player{})

	rep := NewPatchReplicator()
	connA := &MockConnection{}
	sessA := session.NewSession("sessA", connA)
	rep.SyncFull(sessA, st)

	st.RemovePlayer("sessB")
	rep.Publish(st, []*session.Session{sessA})

	patch := lastPatch(t, connA)
	if len(patch.RemovedPlayers) != 1 || patch.RemovedPlayers[0] != "sessB" {
		t.Errorf("Expected sessB in removedPlayers, got %v", patch.RemovedPlayers)
	}
}

func TestPatchReplicator_ForgetDropsCursor(t *testing.T) {
	st := state.NewOfficeState(5, 20)
	rep := NewPatchReplicator()
	conn := &MockConnection{}
	sess := session.NewSession("sessA", conn)
	rep.SyncFull(sess, st)

	rep.Forget("sessA")
	st.AddPlayer("sessB", state.Player{})
	sent := len(conn.packets)

	// A forgotten observer is skipped entirely.
	rep.Publish(st, []*session.Session{sess})
	if len(conn.packets) != sent {
		t.Error("Forgotten observer should not receive patches")
	}
}
