package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/officeserver/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []uint16
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetIdleTimeout(d time.Duration)       {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_SendTo(t *testing.T) {
	manager := NewManager()
	conn := &MockConnection{}
	manager.Add(NewSession("session1", conn))

	if !manager.SendTo("session1", network.MsgTypeDisconnectStream, nil) {
		t.Fatal("SendTo should succeed for a connected session")
	}
	if len(conn.sent) != 1 || conn.sent[0] != network.MsgTypeDisconnectStream {
		t.Errorf("Expected one DISCONNECT_STREAM send, got %v", conn.sent)
	}

	// Unknown target is a silent no-op.
	if manager.SendTo("session2", network.MsgTypeDisconnectStream, nil) {
		t.Error("SendTo should report false for an unknown session")
	}
}

func TestSession_IdleSince(t *testing.T) {
	sess := NewSession("test_session", &MockConnection{})
	sess.LastActive = time.Now().Add(-time.Minute)

	if idle := sess.IdleSince(time.Now()); idle < 59*time.Second {
		t.Errorf("Expected at least a minute of idle time, got %v", idle)
	}

	sess.Touch()
	if idle := sess.IdleSince(time.Now()); idle > time.Second {
		t.Errorf("Touch should reset idle time, got %v", idle)
	}
}
