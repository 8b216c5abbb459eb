package signal

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/pion/webrtc/v4"
)

var validate = validator.New()

type findPartnerPayload struct {
	Type      string `json:"type"`
	Mode      string `json:"mode" validate:"required,oneof=text video"`
	Interests string `json:"interests" validate:"omitempty,max=200"`
}

type leaveRoomPayload struct {
	Type string `json:"type"`
	// Room may be stale or empty; a stop always purges queue entries even
	// when the session is already gone.
	Room string `json:"room"`
}

type chatPayload struct {
	Type string `json:"type"`
	Room string `json:"room" validate:"required"`
	Text string `json:"text" validate:"required,max=2000"`
}

type signalPayload struct {
	Type    string          `json:"type"`
	Room    string          `json:"room" validate:"required"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type reportPayload struct {
	Type string `json:"type"`
	Room string `json:"room" validate:"required"`
}

// signalBody is the tagged shape of a negotiation payload: an SDP exchange
// step or an ICE candidate. It is checked here at the boundary only; the
// relay forwards the raw bytes untouched.
type signalBody struct {
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

func (b *signalBody) valid() bool {
	if b.SDP != nil {
		switch b.SDP.Type {
		case webrtc.SDPTypeOffer, webrtc.SDPTypeAnswer:
			return b.SDP.SDP != ""
		}
		return false
	}
	return b.Candidate != nil && b.Candidate.Candidate != ""
}
