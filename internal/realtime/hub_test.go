package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(agentID, tenantID string) *Client {
	return &Client{AgentID: agentID, TenantID: tenantID, Send: make(chan []byte, 8)}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func recvFrame(t *testing.T, ch chan []byte) Frame {
	t.Helper()
	select {
	case data := <-ch:
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
		return Frame{}
	}
}

func TestHubSendToAgent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient("agent-a", "tenant-1")
	bob := newTestClient("agent-b", "tenant-1")
	hub.Register(alice)
	hub.Register(bob)
	waitFor(t, func() bool { return hub.OnlineCount() == 2 })

	hub.SendToAgent("tenant-1", "agent-a", Frame{Type: FrameNotificationCreated})

	frame := recvFrame(t, alice.Send)
	if frame.Type != FrameNotificationCreated {
		t.Errorf("frame.Type = %q, want %q", frame.Type, FrameNotificationCreated)
	}
	select {
	case <-bob.Send:
		t.Error("frame delivered to wrong agent")
	default:
	}

	hub.SendToAgent("tenant-2", "agent-a", Frame{Type: FramePong})
	select {
	case <-alice.Send:
		t.Error("frame delivered across tenants")
	default:
	}
}

func TestHubLatestSocketWins(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	first := newTestClient("agent-a", "tenant-1")
	second := newTestClient("agent-a", "tenant-1")

	hub.Register(first)
	waitFor(t, func() bool { return hub.Connected("agent-a") })
	hub.Register(second)

	select {
	case _, open := <-first.Send:
		if open {
			t.Fatal("expected evicted channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("evicted channel was not closed")
	}
	if got := hub.OnlineCount(); got != 1 {
		t.Errorf("OnlineCount() = %d, want 1", got)
	}

	hub.SendToAgent("tenant-1", "agent-a", Frame{Type: FramePong})
	frame := recvFrame(t, second.Send)
	if frame.Type != FramePong {
		t.Errorf("frame.Type = %q, want %q", frame.Type, FramePong)
	}
}

func TestHubBroadcastToTenant(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient("agent-a", "tenant-1")
	bob := newTestClient("agent-b", "tenant-1")
	eve := newTestClient("agent-c", "tenant-2")
	hub.Register(alice)
	hub.Register(bob)
	hub.Register(eve)
	waitFor(t, func() bool { return hub.OnlineCount() == 3 })

	hub.BroadcastToTenant("tenant-1", Frame{Type: FramePresenceChanged})

	for _, client := range []*Client{alice, bob} {
		frame := recvFrame(t, client.Send)
		if frame.Type != FramePresenceChanged {
			t.Errorf("frame.Type = %q, want %q", frame.Type, FramePresenceChanged)
		}
	}
	select {
	case <-eve.Send:
		t.Error("frame delivered across tenants")
	default:
	}
}

func TestHubBroadcastToChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	sender := newTestClient("agent-a", "tenant-1")
	member := newTestClient("agent-b", "tenant-1")
	outsider := newTestClient("agent-c", "tenant-1")
	foreign := newTestClient("agent-d", "tenant-2")
	sender.Subscribe("chan-1")
	member.Subscribe("chan-1")
	foreign.Subscribe("chan-1")

	for _, client := range []*Client{sender, member, outsider, foreign} {
		hub.Register(client)
	}
	waitFor(t, func() bool { return hub.OnlineCount() == 4 })

	hub.BroadcastToChannel("tenant-1", "chan-1", "agent-a", Frame{Type: FrameChatMessage})

	frame := recvFrame(t, member.Send)
	if frame.Type != FrameChatMessage {
		t.Errorf("frame.Type = %q, want %q", frame.Type, FrameChatMessage)
	}
	for name, client := range map[string]*Client{"sender": sender, "outsider": outsider, "foreign": foreign} {
		select {
		case <-client.Send:
			t.Errorf("frame delivered to %s", name)
		default:
		}
	}
}

func TestHubSendToClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient("agent-a", "tenant-1")
	stranger := newTestClient("agent-b", "tenant-1")
	hub.Register(client)
	waitFor(t, func() bool { return hub.Connected("agent-a") })

	hub.SendToClient(client, Frame{Type: FramePong})
	frame := recvFrame(t, client.Send)
	if frame.Type != FramePong {
		t.Errorf("frame.Type = %q, want %q", frame.Type, FramePong)
	}

	hub.SendToClient(stranger, Frame{Type: FramePong})
	select {
	case <-stranger.Send:
		t.Error("frame delivered to unregistered client")
	default:
	}
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	client := &Client{AgentID: "agent-a", TenantID: "tenant-1", Send: make(chan []byte, 1)}
	hub.Register(client)
	waitFor(t, func() bool { return hub.Connected("agent-a") })

	// The first frame fills the buffer; the second finds it full and evicts.
	hub.SendToAgent("tenant-1", "agent-a", Frame{Type: FramePong})
	hub.SendToAgent("tenant-1", "agent-a", Frame{Type: FramePong})

	if hub.Connected("agent-a") {
		t.Error("expected the stalled client to be dropped")
	}
	<-client.Send
	if _, open := <-client.Send; open {
		t.Error("expected send channel to be closed")
	}

	// The socket teardown's unregister arrives after the eviction.
	hub.Unregister(client)
	if got := hub.OnlineCount(); got != 0 {
		t.Errorf("OnlineCount() = %d, want 0", got)
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient("agent-a", "tenant-1")
	hub.Register(client)
	waitFor(t, func() bool { return hub.Connected("agent-a") })

	hub.Unregister(client)
	waitFor(t, func() bool { return !hub.Connected("agent-a") })

	if _, open := <-client.Send; open {
		t.Error("expected send channel to be closed")
	}
}

func TestHubShutdownDropsClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	client := newTestClient("agent-a", "tenant-1")
	hub.Register(client)
	waitFor(t, func() bool { return hub.Connected("agent-a") })

	hub.Shutdown()
	waitFor(t, func() bool { return hub.OnlineCount() == 0 })

	if _, open := <-client.Send; open {
		t.Error("expected send channel to be closed")
	}
}

func TestClientSubscriptions(t *testing.T) {
	client := newTestClient("agent-a", "tenant-1")
	if client.SubscribedTo("chan-1") {
		t.Error("fresh client should not be subscribed")
	}
	client.Subscribe("chan-1")
	if !client.SubscribedTo("chan-1") {
		t.Error("Subscribe() did not take effect")
	}
	client.Unsubscribe("chan-1")
	if client.SubscribedTo("chan-1") {
		t.Error("Unsubscribe() did not take effect")
	}
}
