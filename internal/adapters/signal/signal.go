package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/driftchat/driftchat/internal/app"
	"github.com/driftchat/driftchat/internal/config"
	"github.com/driftchat/driftchat/internal/core"
	"github.com/driftchat/driftchat/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// ChatWSController upgrades HTTP requests to chat WebSockets and owns the
// transport lifecycle for each connection.
type ChatWSController struct {
	Orch *app.Orchestrator
	Cfg  *config.Config
}

func NewChatWSController(orch *app.Orchestrator, cfg *config.Config) *ChatWSController {
	return &ChatWSController{Orch: orch, Cfg: cfg}
}

type wsChatConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsChatConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsChatConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleChat upgrades the request and registers the connection. The client
// id is minted per connection: the browser token cookie is shared across
// tabs, so it only identifies the browser, never the transport.
func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	cid := domain.ClientID(uuid.NewString())
	log.Info().Str("module", "signal").
		Str("cid", string(cid)).
		Str("ct", c.GetString("client_token")).
		Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &wsChatConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}

	ctl.Orch.OnConnect(cid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cancel, conn)
	go ctl.readPump(ctx, cancel, cid, conn)
}
