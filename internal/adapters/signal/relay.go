package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/driftchat/driftchat/internal/domain"
)

func (ctl *ChatWSController) handleMessage(cid domain.ClientID, data []byte) {
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad message payload")
		ctl.Orch.PushError(cid, "bad_payload")
		return
	}
	if err := validate.Struct(&p); err != nil {
		ctl.Orch.PushError(cid, "bad_payload")
		return
	}

	ctl.Orch.Chat(cid, domain.RoomID(p.Room), p.Text)
}

func (ctl *ChatWSController) handleSignal(cid domain.ClientID, data []byte) {
	var p signalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad signal payload")
		ctl.Orch.PushError(cid, "bad_payload")
		return
	}
	if err := validate.Struct(&p); err != nil {
		ctl.Orch.PushError(cid, "bad_payload")
		return
	}

	// Boundary type check only. The relayed bytes are p.Payload as received.
	var body signalBody
	if err := json.Unmarshal(p.Payload, &body); err != nil || !body.valid() {
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("malformed signal body")
		ctl.Orch.PushError(cid, "bad_signal")
		return
	}

	ctl.Orch.Signal(cid, domain.RoomID(p.Room), p.Payload)
}
