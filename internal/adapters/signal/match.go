package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/driftchat/driftchat/internal/domain"
)

func (ctl *ChatWSController) handleFindPartner(cid domain.ClientID, data []byte) {
	var p findPartnerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad find_partner payload")
		ctl.Orch.PushError(cid, "bad_payload")
		return
	}
	if err := validate.Struct(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("invalid find_partner payload")
		ctl.Orch.PushError(cid, "invalid mode")
		return
	}

	log.Info().Str("module", "signal").
		Str("cid", string(cid)).
		Str("mode", p.Mode).
		Str("interests", p.Interests).
		Msg("find_partner")
	ctl.Orch.FindPartner(cid, domain.ChatMode(p.Mode), p.Interests)
}

func (ctl *ChatWSController) handleLeaveRoom(cid domain.ClientID, data []byte) {
	var p leaveRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad leave_room payload")
		ctl.Orch.PushError(cid, "bad_payload")
		return
	}

	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("room", p.Room).Msg("leave_room")
	ctl.Orch.LeaveRoom(cid, domain.RoomID(p.Room))
}

func (ctl *ChatWSController) handleReport(cid domain.ClientID, data []byte) {
	var p reportPayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.Orch.PushError(cid, "bad_payload")
		return
	}
	if err := validate.Struct(&p); err != nil {
		ctl.Orch.PushError(cid, "bad_payload")
		return
	}
	ctl.Orch.Report(cid, domain.RoomID(p.Room))
}
