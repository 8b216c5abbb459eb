package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/driftchat/driftchat/internal/core"
	"github.com/driftchat/driftchat/internal/domain"
)

// Orchestrator funnels every inbound event into the matchmaker and performs
// all outbound delivery through the registry. Adapters never touch pairing
// state directly.
type Orchestrator struct {
	Registry *Registry
	Match    *Matchmaker
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		Registry: NewRegistry(),
		Match:    NewMatchmaker(),
	}
}

// OnConnect registers the transport and broadcasts the new presence count.
func (o *Orchestrator) OnConnect(id domain.ClientID, conn core.SignalConnection) {
	o.Registry.Add(id, conn)
	o.broadcastCount()
}

// OnDisconnect is an implicit stop: end any session (notifying the
// partner), purge queue entries, unbind the transport and broadcast the
// decremented count. Safe from any state, racing anything.
func (o *Orchestrator) OnDisconnect(id domain.ClientID) {
	if partner, ok := o.Match.Disconnect(id); ok {
		o.push(partner, plainEvent{Type: EvtPartnerDisconnected})
	}
	o.Registry.Remove(id)
	o.broadcastCount()
}

// FindPartner runs one matchmaking attempt for id.
func (o *Orchestrator) FindPartner(id domain.ClientID, mode domain.ChatMode, interests string) {
	res, err := o.Match.FindPartner(id, mode, interests)
	if err != nil {
		// Adapters validate mode before calling; this guards direct callers.
		o.PushError(id, err.Error())
		return
	}

	if res.EndedPartner != "" {
		o.push(res.EndedPartner, plainEvent{Type: EvtPartnerDisconnected})
	}

	switch res.Status {
	case StatusWaiting:
		o.push(id, waitingEvent{Type: EvtWaiting, Message: res.Message})
	case StatusMatched:
		sess := res.Session
		found := roomEvent{Type: EvtMatchFound, Room: sess.ID}
		o.push(sess.A, found)
		o.push(sess.B, found)
		if sess.Mode == domain.ModeVideo {
			o.push(sess.Initiator, roomEvent{Type: EvtMakeOffer, Room: sess.ID})
		}
	}
}

// LeaveRoom handles a voluntary stop.
func (o *Orchestrator) LeaveRoom(id domain.ClientID, room domain.RoomID) {
	if partner, ok := o.Match.Leave(id, room); ok {
		o.push(partner, plainEvent{Type: EvtPartnerDisconnected})
	}
}

// Chat relays one chat line to the sender's partner in room. Stale room
// references drop silently.
func (o *Orchestrator) Chat(id domain.ClientID, room domain.RoomID, text string) {
	partner, ok := o.Match.Partner(id, room)
	if !ok {
		log.Debug().Str("module", "app.orchestrator").Str("cid", string(id)).Str("room", string(room)).Msg("chat dropped, no session")
		return
	}
	o.push(partner, chatEvent{Type: EvtMessage, Text: text, Sender: SenderStranger})
}

// Signal relays one negotiation payload verbatim to the sender's partner.
// The payload is never inspected here.
func (o *Orchestrator) Signal(id domain.ClientID, room domain.RoomID, payload json.RawMessage) {
	partner, ok := o.Match.Partner(id, room)
	if !ok {
		log.Debug().Str("module", "app.orchestrator").Str("cid", string(id)).Str("room", string(room)).Msg("signal dropped, no session")
		return
	}
	o.push(partner, signalEvent{Type: EvtSignal, Payload: payload})
}

// Report is the moderation hook. Intentionally a no-op beyond the log line.
func (o *Orchestrator) Report(id domain.ClientID, room domain.RoomID) {
	log.Info().Str("module", "app.orchestrator").Str("cid", string(id)).Str("room", string(room)).Msg("partner reported")
}

// Pong answers an application-level ping.
func (o *Orchestrator) Pong(id domain.ClientID) {
	o.push(id, plainEvent{Type: EvtPong})
}

// PushError delivers a validation error to the offending connection only.
func (o *Orchestrator) PushError(id domain.ClientID, msg string) {
	o.push(id, errorEvent{Type: EvtError, Error: msg})
}

// Stats is the REST observability snapshot.
type Stats struct {
	Online       int `json:"online"`
	WaitingText  int `json:"waiting_text"`
	WaitingVideo int `json:"waiting_video"`
	Sessions     int `json:"sessions"`
}

func (o *Orchestrator) Stats() Stats {
	return Stats{
		Online:       o.Registry.Count(),
		WaitingText:  o.Match.WaitingCount(domain.ModeText),
		WaitingVideo: o.Match.WaitingCount(domain.ModeVideo),
		Sessions:     o.Match.SessionCount(),
	}
}

func (o *Orchestrator) push(id domain.ClientID, v any) {
	conn, ok := o.Registry.Get(id)
	if !ok {
		return
	}
	frame, ok := encode(v)
	if !ok {
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Str("module", "app.orchestrator").Str("cid", string(id)).Err(err).Msg("push dropped")
	}
}

func (o *Orchestrator) broadcastCount() {
	frame, ok := encode(countEvent{Type: EvtUpdateCount, Count: o.Registry.Count()})
	if !ok {
		return
	}
	o.Registry.Broadcast(frame)
}
