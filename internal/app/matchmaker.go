package app

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/driftchat/driftchat/internal/domain"
)

type MatchStatus int

const (
	StatusWaiting MatchStatus = iota
	StatusMatched
)

// MatchResult reports the outcome of one FindPartner call.
type MatchResult struct {
	Status  MatchStatus
	Session *domain.Session // set when Status == StatusMatched
	Message string          // set when Status == StatusWaiting

	// EndedPartner is the partner of a session this request tore down via
	// stop-then-restart semantics. Empty when the caller had no session.
	EndedPartner domain.ClientID
}

type clientState struct {
	Mode      domain.ChatMode
	Interests string
	Room      domain.RoomID
}

// Matchmaker owns all pairing state: the per-mode waiting stacks, the
// session table and each client's mode/room. Every mutation goes through
// its methods under one mutex, so concurrent match requests, stops and
// disconnects serialize and can never double-pop a waiter or end a session
// twice.
//
// The waiting pools are stacks: the most recently enqueued client is
// matched first. That is a deliberate policy carried over from the observed
// behavior, not a bug; fairness for long waiters is an explicit non-goal.
type Matchmaker struct {
	mu       sync.Mutex
	waiting  map[domain.ChatMode][]domain.ClientID
	sessions map[domain.RoomID]*domain.Session
	clients  map[domain.ClientID]*clientState
}

func NewMatchmaker() *Matchmaker {
	return &Matchmaker{
		waiting: map[domain.ChatMode][]domain.ClientID{
			domain.ModeText:  {},
			domain.ModeVideo: {},
		},
		sessions: make(map[domain.RoomID]*domain.Session),
		clients:  make(map[domain.ClientID]*clientState),
	}
}

// FindPartner enters id into matchmaking for mode. A client already waiting
// or already paired is detached from that state first, so it holds at most
// one queue slot or one room at any instant.
func (m *Matchmaker) FindPartner(id domain.ClientID, mode domain.ChatMode, interests string) (MatchResult, error) {
	if !mode.Valid() {
		return MatchResult{}, domain.ErrUnknownMode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	endedPartner := m.detach(id)

	st := m.clients[id]
	if st == nil {
		st = &clientState{}
		m.clients[id] = st
	}
	st.Mode = mode
	st.Interests = interests

	stack := m.waiting[mode]
	if len(stack) == 0 {
		m.waiting[mode] = append(stack, id)
		log.Info().Str("module", "app.matchmaker").Str("cid", string(id)).Str("mode", string(mode)).Msg("enqueued")
		return MatchResult{
			Status:       StatusWaiting,
			Message:      fmt.Sprintf("Looking for a %s partner...", mode),
			EndedPartner: endedPartner,
		}, nil
	}

	// Pop the most recent waiter.
	waiter := stack[len(stack)-1]
	m.waiting[mode] = stack[:len(stack)-1]

	sess := domain.NewSession(id, waiter, mode)
	m.sessions[sess.ID] = sess
	m.stateOf(id).Room = sess.ID
	m.stateOf(waiter).Room = sess.ID

	log.Info().Str("module", "app.matchmaker").
		Str("room", string(sess.ID)).
		Str("cid", string(id)).
		Str("partner", string(waiter)).
		Str("mode", string(mode)).
		Msg("matched")

	return MatchResult{Status: StatusMatched, Session: sess, EndedPartner: endedPartner}, nil
}

// Leave handles a voluntary stop. The room id guards against stale stops: a
// stop tagged with a room the client is no longer in only purges queue
// entries. An empty room id ends whatever session the client is in.
// Returns the partner to notify, if a session was actually ended.
func (m *Matchmaker) Leave(id domain.ClientID, room domain.RoomID) (domain.ClientID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dequeue(id)

	st, ok := m.clients[id]
	if !ok || st.Room == "" {
		return "", false
	}
	if room != "" && room != st.Room {
		return "", false
	}
	partner := m.endSession(st.Room, id)
	if partner == "" {
		return "", false
	}
	return partner, true
}

// Disconnect is the terminal transition: cleanup equivalent to Leave plus
// forgetting the client entirely. Safe to call at any state, any number of
// times.
func (m *Matchmaker) Disconnect(id domain.ClientID) (domain.ClientID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	partner := m.detach(id)
	delete(m.clients, id)
	return partner, partner != ""
}

// Partner resolves the other member of room, provided id currently belongs
// to it. A stale or foreign room id yields ok == false, never an error.
func (m *Matchmaker) Partner(id domain.ClientID, room domain.RoomID) (domain.ClientID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[room]
	if !ok || !sess.Has(id) {
		return "", false
	}
	return sess.Other(id), true
}

// WaitingCount reports the queue depth for one mode.
func (m *Matchmaker) WaitingCount(mode domain.ChatMode) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiting[mode])
}

// SessionCount reports the number of live sessions.
func (m *Matchmaker) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RoomOf reports the client's current room, if any. Test and stats seam.
func (m *Matchmaker) RoomOf(id domain.ClientID) (domain.RoomID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.clients[id]
	if !ok || st.Room == "" {
		return "", false
	}
	return st.Room, true
}

// detach removes id from both queues and from its session, if any.
// Returns the orphaned partner. Caller holds mu.
func (m *Matchmaker) detach(id domain.ClientID) domain.ClientID {
	m.dequeue(id)
	st, ok := m.clients[id]
	if !ok || st.Room == "" {
		return ""
	}
	return m.endSession(st.Room, id)
}

// endSession destroys room exactly once and clears both members' room
// references. Returns the member other than leaver. Ending an already-gone
// room is a no-op. Caller holds mu.
func (m *Matchmaker) endSession(room domain.RoomID, leaver domain.ClientID) domain.ClientID {
	sess, ok := m.sessions[room]
	if !ok {
		return ""
	}
	delete(m.sessions, room)

	for _, member := range []domain.ClientID{sess.A, sess.B} {
		if st, ok := m.clients[member]; ok && st.Room == room {
			st.Room = ""
		}
		// A paired client must never linger in a stale queue slot.
		m.dequeue(member)
	}

	log.Info().Str("module", "app.matchmaker").Str("room", string(room)).Str("cid", string(leaver)).Msg("session ended")
	return sess.Other(leaver)
}

// dequeue purges id from both mode queues. Caller holds mu.
func (m *Matchmaker) dequeue(id domain.ClientID) {
	for mode, stack := range m.waiting {
		for i, waiting := range stack {
			if waiting == id {
				m.waiting[mode] = append(stack[:i], stack[i+1:]...)
				break
			}
		}
	}
}

// stateOf returns the tracked state for id, creating it when missing.
// Caller holds mu.
func (m *Matchmaker) stateOf(id domain.ClientID) *clientState {
	st, ok := m.clients[id]
	if !ok {
		st = &clientState{}
		m.clients[id] = st
	}
	return st
}
