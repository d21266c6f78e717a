package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"quiz-trainer/internal/quiz"
)

const (
	streamBuffer       = 32
	streamWriteTimeout = 10 * time.Second
	streamPongWait     = 60 * time.Second
	streamPingPeriod   = 50 * time.Second
)

type streamMessage struct {
	Event            string           `json:"event"`
	RemainingSeconds int              `json:"remaining_seconds"`
	Cue              string           `json:"cue,omitempty"`
	Result           *resultResponse  `json:"result,omitempty"`
	Session          *sessionResponse `json:"session,omitempty"`
}

// hub fans controller events out to stream subscribers. Slow subscribers
// miss messages instead of blocking the controller.
type hub struct {
	mu     sync.Mutex
	subs   map[chan streamMessage]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[chan streamMessage]struct{})}
}

func (h *hub) subscribe() (<-chan streamMessage, func()) {
	ch := make(chan streamMessage, streamBuffer)

	h.mu.Lock()
	if h.closed {
		close(ch)
		h.mu.Unlock()
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

func (h *hub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub) publish(msg streamMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *hub) publishEvent(event quiz.Event) {
	msg := streamMessage{
		Event:            string(event.Type),
		RemainingSeconds: event.RemainingSeconds,
	}
	if event.Result != nil {
		result := toResultResponse(*event.Result)
		msg.Result = &result
	}
	h.publish(msg)
}

// Play forwards a cue to connected clients, which play the sound.
func (h *hub) Play(_ context.Context, cue quiz.Cue) error {
	h.publish(streamMessage{Event: "cue", Cue: string(cue)})
	return nil
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// buildUpgrader validates the Origin header against allowedOrigins. An empty
// slice permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

func writeTyped(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(v)
}

// HandleSessionStream upgrades to a websocket and pushes the player's session
// events. The first message is a snapshot of the current session.
func (a *API) HandleSessionStream(c *gin.Context) {
	p, ok := a.playerFromParam(c)
	if !ok {
		return
	}

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	streamLog := a.log.With().Str("player_id", p.id.String()).Logger()
	streamLog.Info().Msg("Stream connected")

	events, unsubscribe := p.hub.subscribe()
	defer unsubscribe()

	snapshot := streamMessage{Event: "snapshot"}
	if view, ok := p.controller.Session(); ok {
		session := toSessionResponse(view)
		snapshot.Session = &session
		snapshot.RemainingSeconds = view.RemainingSeconds
	}
	if err := writeTyped(conn, snapshot); err != nil {
		streamLog.Debug().Err(err).Msg("Snapshot write failed")
		return
	}

	// The read loop only exists to observe pongs and the close frame.
	done := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					streamLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			streamLog.Debug().Msg("Stream closed")
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(time.Second))
				return
			}
			if err := writeTyped(conn, msg); err != nil {
				streamLog.Debug().Err(err).Msg("Stream write failed")
				return
			}
		}
	}
}
