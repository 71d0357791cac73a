package pageindex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/logger"
)

// Ensure Push implements the interface.
var _ driven.StatusPush = (*Push)(nil)

const (
	// maxFrameSize bounds a single push frame.
	maxFrameSize = 64 << 10

	writeTimeout = 5 * time.Second
)

// Push subscribes to per-document status frames over WebSocket.
type Push struct {
	wsURL     string
	dialer    *websocket.Dialer
	keepAlive time.Duration
}

// NewPush creates a push adapter rooted at wsURL, e.g. ws://localhost:8000.
// keepAlive is the interval between client pings; zero disables them.
func NewPush(wsURL string, keepAlive time.Duration) *Push {
	return &Push{
		wsURL:     strings.TrimRight(wsURL, "/"),
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		keepAlive: keepAlive,
	}
}

// Subscribe opens /ws/document/{id}. The returned channel carries
// status_update frames and closes when ctx ends or the connection drops.
func (p *Push) Subscribe(ctx context.Context, documentID int64) (<-chan domain.StatusEvent, error) {
	url := p.wsURL + "/ws/document/" + pathID(documentID)

	conn, resp, err := p.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("subscribe document %d", documentID), err)
	}
	conn.SetReadLimit(maxFrameSize)
	logger.Debug("push: connected %s", url)

	s := &subscription{
		conn:       conn,
		documentID: documentID,
		out:        make(chan domain.StatusEvent, 8),
	}

	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-subCtx.Done()
		s.close()
	}()
	if p.keepAlive > 0 {
		go s.ping(subCtx, p.keepAlive)
	}
	go func() {
		defer cancel()
		s.read(subCtx)
	}()

	return s.out, nil
}

type subscription struct {
	conn       *websocket.Conn
	documentID int64
	out        chan domain.StatusEvent

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// read forwards status frames until the connection fails.
func (s *subscription) read(ctx context.Context) {
	defer close(s.out)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("push: document %d: %v", s.documentID, err)
			}
			return
		}

		var frame pushFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Debug("push: document %d: ignoring undecodable frame: %v", s.documentID, err)
			continue
		}

		switch frame.Type {
		case frameStatusUpdate:
			status, err := parseStatus(frame.Status)
			if err != nil {
				logger.Debug("push: document %d: ignoring status update: %v", s.documentID, err)
				continue
			}
			ev := domain.StatusEvent{
				DocumentID: s.documentID,
				Status:     status,
				Message:    frame.Message,
				IndexPath:  frame.IndexPath,
			}
			select {
			case s.out <- ev:
			case <-ctx.Done():
				return
			}
		case framePing:
			if err := s.write(pushFrame{Type: framePong}); err != nil {
				logger.Debug("push: document %d: pong failed: %v", s.documentID, err)
			}
		case framePong:
		default:
			logger.Debug("push: document %d: ignoring frame type %q", s.documentID, frame.Type)
		}
	}
}

// ping keeps idle connections open through proxies.
func (s *subscription) ping(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.write(pushFrame{Type: framePing}); err != nil {
				logger.Debug("push: document %d: ping failed: %v", s.documentID, err)
				return
			}
		}
	}
}

func (s *subscription) write(frame pushFrame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(frame)
}

func (s *subscription) close() {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
}
