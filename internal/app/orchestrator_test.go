package app

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftchat/driftchat/internal/core"
	"github.com/driftchat/driftchat/internal/domain"
)

// fakeConn captures delivered frames, standing in for the ws transport.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (f *fakeConn) TrySend(frame core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

type event map[string]any

func (f *fakeConn) events(t *testing.T) []event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]event, 0, len(f.frames))
	for _, frame := range f.frames {
		var ev event
		require.NoError(t, json.Unmarshal(frame, &ev))
		out = append(out, ev)
	}
	return out
}

// ofType filters delivered events by envelope type.
func ofType(evs []event, typ string) []event {
	var out []event
	for _, ev := range evs {
		if ev["type"] == typ {
			out = append(out, ev)
		}
	}
	return out
}

func pairUp(t *testing.T, o *Orchestrator, mode domain.ChatMode) (a, b *fakeConn, room string) {
	t.Helper()
	a, b = &fakeConn{}, &fakeConn{}
	o.OnConnect("a", a)
	o.OnConnect("b", b)
	o.FindPartner("a", mode, "")
	o.FindPartner("b", mode, "")

	found := ofType(a.events(t), EvtMatchFound)
	require.Len(t, found, 1)
	room = found[0]["room"].(string)
	require.NotEmpty(t, room)
	return a, b, room
}

func TestPresenceBroadcastOnConnectAndDisconnect(t *testing.T) {
	o := NewOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}

	o.OnConnect("a", a)
	o.OnConnect("b", b)

	counts := ofType(a.events(t), EvtUpdateCount)
	require.Len(t, counts, 2)
	assert.Equal(t, float64(1), counts[0]["count"])
	assert.Equal(t, float64(2), counts[1]["count"])

	o.OnDisconnect("b")
	counts = ofType(a.events(t), EvtUpdateCount)
	require.Len(t, counts, 3)
	assert.Equal(t, float64(1), counts[2]["count"])
}

func TestTextMatchFlow(t *testing.T) {
	o := NewOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}
	o.OnConnect("a", a)
	o.OnConnect("b", b)

	o.FindPartner("a", domain.ModeText, "")
	waits := ofType(a.events(t), EvtWaiting)
	require.Len(t, waits, 1)
	assert.Equal(t, "Looking for a text partner...", waits[0]["message"])

	o.FindPartner("b", domain.ModeText, "")
	foundA := ofType(a.events(t), EvtMatchFound)
	foundB := ofType(b.events(t), EvtMatchFound)
	require.Len(t, foundA, 1)
	require.Len(t, foundB, 1)
	assert.Equal(t, foundA[0]["room"], foundB[0]["room"])

	// Text mode never instructs anyone to open a peer connection.
	assert.Empty(t, ofType(a.events(t), EvtMakeOffer))
	assert.Empty(t, ofType(b.events(t), EvtMakeOffer))
}

func TestChatRelayReachesOnlyPartner(t *testing.T) {
	o := NewOrchestrator()
	a, b, room := pairUp(t, o, domain.ModeText)

	c := &fakeConn{}
	o.OnConnect("c", c)

	o.Chat("a", domain.RoomID(room), "hi")

	msgs := ofType(b.events(t), EvtMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0]["text"])
	assert.Equal(t, SenderStranger, msgs[0]["sender"])

	assert.Empty(t, ofType(a.events(t), EvtMessage))
	assert.Empty(t, ofType(c.events(t), EvtMessage))

	// An outsider writing into the room is dropped, not relayed.
	o.Chat("c", domain.RoomID(room), "sneak")
	assert.Empty(t, ofType(a.events(t), EvtMessage))
	require.Len(t, ofType(b.events(t), EvtMessage), 1)
}

func TestChatRelayPreservesOrder(t *testing.T) {
	o := NewOrchestrator()
	_, b, room := pairUp(t, o, domain.ModeText)

	texts := []string{"one", "two", "three", "four"}
	for _, txt := range texts {
		o.Chat("a", domain.RoomID(room), txt)
	}

	msgs := ofType(b.events(t), EvtMessage)
	require.Len(t, msgs, len(texts))
	for i, txt := range texts {
		assert.Equal(t, txt, msgs[i]["text"])
	}
}

func TestVideoMatchDesignatesOneInitiator(t *testing.T) {
	o := NewOrchestrator()
	a, b, _ := pairUp(t, o, domain.ModeVideo)

	// b completed the pair, so b makes the offer; a waits passively.
	assert.Empty(t, ofType(a.events(t), EvtMakeOffer))
	require.Len(t, ofType(b.events(t), EvtMakeOffer), 1)
}

func TestSignalRelayIsVerbatim(t *testing.T) {
	o := NewOrchestrator()
	a, _, room := pairUp(t, o, domain.ModeVideo)

	payload := json.RawMessage(`{"sdp":{"type":"offer","sdp":"v=0"}}`)
	o.Signal("b", domain.RoomID(room), payload)

	sigs := ofType(a.events(t), EvtSignal)
	require.Len(t, sigs, 1)
	inner, err := json.Marshal(sigs[0]["payload"])
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(inner))
}

func TestLeaveNotifiesPartnerAndKillsRoom(t *testing.T) {
	o := NewOrchestrator()
	a, b, room := pairUp(t, o, domain.ModeText)

	o.LeaveRoom("a", domain.RoomID(room))
	require.Len(t, ofType(b.events(t), EvtPartnerDisconnected), 1)
	assert.Empty(t, ofType(a.events(t), EvtPartnerDisconnected))

	// A stray negotiation message tagged with the dead room id vanishes.
	o.Signal("b", domain.RoomID(room), json.RawMessage(`{"candidate":{"candidate":"x"}}`))
	assert.Empty(t, ofType(a.events(t), EvtSignal))

	// Repeated stops stay silent.
	o.LeaveRoom("a", domain.RoomID(room))
	o.LeaveRoom("b", domain.RoomID(room))
	require.Len(t, ofType(b.events(t), EvtPartnerDisconnected), 1)
}

func TestDisconnectActsAsImplicitStop(t *testing.T) {
	o := NewOrchestrator()
	_, b, _ := pairUp(t, o, domain.ModeText)

	o.OnDisconnect("a")
	require.Len(t, ofType(b.events(t), EvtPartnerDisconnected), 1)
	assert.Equal(t, 1, o.Registry.Count())
	assert.Equal(t, 0, o.Match.SessionCount())
}

func TestRestartNotifiesAbandonedPartner(t *testing.T) {
	o := NewOrchestrator()
	a, b, _ := pairUp(t, o, domain.ModeText)

	// a hits "new" without stopping first: old partner must learn about it.
	o.FindPartner("a", domain.ModeText, "")
	require.Len(t, ofType(b.events(t), EvtPartnerDisconnected), 1)
	require.Len(t, ofType(a.events(t), EvtWaiting), 2)
}

func TestErrorGoesToOffenderOnly(t *testing.T) {
	o := NewOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}
	o.OnConnect("a", a)
	o.OnConnect("b", b)

	o.FindPartner("a", domain.ChatMode("voice"), "")

	require.Len(t, ofType(a.events(t), EvtError), 1)
	assert.Empty(t, ofType(b.events(t), EvtError))
	assert.Equal(t, 0, o.Match.WaitingCount(domain.ModeText))
	assert.Equal(t, 0, o.Match.WaitingCount(domain.ModeVideo))
}

func TestStatsSnapshot(t *testing.T) {
	o := NewOrchestrator()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	o.OnConnect("a", a)
	o.OnConnect("b", b)
	o.OnConnect("c", c)

	o.FindPartner("a", domain.ModeText, "")
	o.FindPartner("b", domain.ModeText, "")
	o.FindPartner("c", domain.ModeVideo, "")

	st := o.Stats()
	assert.Equal(t, 3, st.Online)
	assert.Equal(t, 0, st.WaitingText)
	assert.Equal(t, 1, st.WaitingVideo)
	assert.Equal(t, 1, st.Sessions)
}
