package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/davidbz/streambench/internal/observability"
)

// Client message types accepted on the run socket.
const (
	ClientRun    = "run"
	ClientCancel = "cancel"
)

const socketWriteTimeout = 10 * time.Second

//nolint:gochecknoglobals // upgrader is stateless and shared
var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool {
		return true // origin policy is enforced by the CORS middleware
	},
}

// ClientMessage is what a socket client sends: a run request or a cancel.
type ClientMessage struct {
	Type string `json:"type"`
	RunRequest
}

// socket serializes writes; gorilla allows one concurrent writer.
type socket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *socket) send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

// HandleRunSocket runs questions over a websocket. One run is active at a
// time; a cancel message stops every variant of it.
func (h *Handler) HandleRunSocket(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", observability.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	// The server read timeout covers the handshake only.
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancelConn := context.WithCancel(r.Context())
	defer cancelConn()

	sock := &socket{conn: conn}

	var (
		mu     sync.Mutex
		active context.CancelFunc
		wg     sync.WaitGroup
	)

	sendError := func(text string) {
		if err := sock.send(Message{Type: MessageError, Error: text}); err != nil {
			logger.Debug("socket write failed", observability.Error(err))
		}
	}

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", observability.Error(err))
			}
			break
		}

		switch msg.Type {
		case ClientRun:
			mu.Lock()
			busy := active != nil
			mu.Unlock()
			if busy {
				sendError("a run is already in progress")
				continue
			}

			runCtx, cancel := context.WithCancel(ctx)
			run, err := h.orchestrator.RunAll(runCtx, msg.Question, h.variants(&msg.RunRequest))
			if err != nil {
				cancel()
				sendError(err.Error())
				continue
			}

			mu.Lock()
			active = cancel
			mu.Unlock()

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() {
					mu.Lock()
					active = nil
					mu.Unlock()
					cancel()
				}()
				h.stream(runCtx, run, &msg.RunRequest, sock.send)
			}()

		case ClientCancel:
			mu.Lock()
			if active != nil {
				active()
			}
			mu.Unlock()

		default:
			sendError("unknown message type: " + msg.Type)
		}
	}

	cancelConn()
	wg.Wait()
}
