package app

import (
	"encoding/json"

	"github.com/driftchat/driftchat/internal/core"
	"github.com/driftchat/driftchat/internal/domain"
)

// Outbound event envelopes. The adapter decodes inbound traffic; everything
// the server emits is built here so event names live in one place.

const (
	EvtUpdateCount         = "update_count"
	EvtWaiting             = "waiting"
	EvtMatchFound          = "match_found"
	EvtMakeOffer           = "make_offer"
	EvtSignal              = "signal"
	EvtMessage             = "message"
	EvtPartnerDisconnected = "partner_disconnected"
	EvtError               = "error"
	EvtPong                = "pong"
)

// SenderStranger tags every relayed chat line; the receiving side never
// learns anything else about its partner.
const SenderStranger = "stranger"

type countEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type waitingEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type roomEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
}

type signalEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type chatEvent struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

type plainEvent struct {
	Type string `json:"type"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return core.Frame(b), true
}
