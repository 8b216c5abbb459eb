package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/driftchat/driftchat/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *ChatWSController) writePump(ctx context.Context, cancel context.CancelFunc, c *wsChatConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *ChatWSController) readPump(ctx context.Context, cancel context.CancelFunc, cid domain.ClientID, c *wsChatConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump closing")
		cancel()
		ctl.Orch.OnDisconnect(cid)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(cid, data)
		}
	}
}

func (ctl *ChatWSController) handleEvent(cid domain.ClientID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad json")
		ctl.Orch.PushError(cid, "bad_payload")
		return
	}

	switch env.Type {
	case "find_partner":
		ctl.handleFindPartner(cid, data)
	case "leave_room":
		ctl.handleLeaveRoom(cid, data)
	case "message":
		ctl.handleMessage(cid, data)
	case "signal":
		ctl.handleSignal(cid, data)
	case "report":
		ctl.handleReport(cid, data)
	case "ping":
		ctl.Orch.Pong(cid)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
		ctl.Orch.PushError(cid, "unknown_event")
	}
}
