package domain

import "github.com/google/uuid"

type RoomID string

// Session is a live pairing of exactly two clients. It exists only while
// both members are present; either side leaving destroys it.
type Session struct {
	ID   RoomID
	Mode ChatMode
	A    ClientID
	B    ClientID
	// Initiator starts the WebRTC handshake in video mode. It is always the
	// client whose match request completed the pair.
	Initiator ClientID
}

// NewSession allocates a fresh room id per pairing. The id is never derived
// from member ids, so re-pairing the same two clients can't collide.
func NewSession(requester, waiter ClientID, mode ChatMode) *Session {
	return &Session{
		ID:        RoomID(uuid.NewString()),
		Mode:      mode,
		A:         requester,
		B:         waiter,
		Initiator: requester,
	}
}

// Other returns the partner of id, or "" when id is not a member.
func (s *Session) Other(id ClientID) ClientID {
	switch id {
	case s.A:
		return s.B
	case s.B:
		return s.A
	}
	return ""
}

func (s *Session) Has(id ClientID) bool {
	return id == s.A || id == s.B
}
