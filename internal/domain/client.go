// Package domain contains entity without logic, just meta-data
package domain

import "errors"

var ErrUnknownMode = errors.New("unknown chat mode")

// ClientID identifies one client connection. Minted per transport, stable
// until that transport terminates.
type ClientID string

// ChatMode selects which waiting pool a client enters.
type ChatMode string

const (
	ModeText  ChatMode = "text"
	ModeVideo ChatMode = "video"
)

func (m ChatMode) Valid() bool {
	return m == ModeText || m == ModeVideo
}
