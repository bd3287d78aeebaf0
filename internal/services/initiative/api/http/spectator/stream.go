package spectator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"

	apperrors "github.com/louisbranch/initiative/internal/platform/errors"
	"github.com/louisbranch/initiative/internal/platform/timeouts"
	"github.com/louisbranch/initiative/internal/services/initiative/core/encounter"
)

const (
	frameTimeline = "initiative.timeline"
	frameClosed   = "initiative.closed"
	frameError    = "initiative.error"
	// frameLagged tells a spectator it was dropped for falling behind and
	// should reconnect for a fresh snapshot.
	frameLagged = "initiative.lagged"
)

// streamFrame is one server-to-spectator message.
type streamFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type wsPeer struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	encoder *json.Encoder
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{conn: conn, encoder: json.NewEncoder(conn)}
}

func (p *wsPeer) writeFrame(frame streamFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(timeouts.StreamWrite)); err != nil {
		return err
	}
	return p.encoder.Encode(frame)
}

func (h *handler) stream(c *gin.Context) {
	length, ok := boundedQuery(c, "length", encounter.MaxTimelineLength)
	if !ok {
		return
	}
	encounterID := c.Param(encounterIDParam)
	locale := apperrors.LocaleFromHeader(c.GetHeader("Accept-Language"))
	if _, err := h.app.GetEncounter(c.Request.Context(), encounterID); err != nil {
		abortWithError(c, err)
		return
	}

	websocket.Handler(func(conn *websocket.Conn) {
		defer func() {
			_ = conn.Close()
		}()
		h.serveStream(conn.Request().Context(), newWSPeer(conn), conn, encounterID, length, locale)
	}).ServeHTTP(c.Writer, c.Request)
}

// serveStream sends the current timeline, then one timeline per committed
// update until the spectator disconnects or the encounter goes away.
func (h *handler) serveStream(ctx context.Context, peer *wsPeer, conn io.Reader, encounterID string, length int, locale string) {
	sub := h.hub.Subscribe(encounterID)
	defer sub.Close()

	// Subscribed before the snapshot, so a revision may arrive twice.
	view, err := h.app.ProjectTimeline(ctx, encounterID, length)
	if err != nil {
		_ = peer.writeFrame(errorFrame(err, locale))
		return
	}
	if err := peer.writeFrame(streamFrame{Type: frameTimeline, Payload: view}); err != nil {
		return
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_, _ = io.Copy(io.Discard, conn)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case updated, ok := <-sub.Updates():
			if !ok {
				_ = peer.writeFrame(endFrame(sub.Err()))
				return
			}
			if err := peer.writeFrame(streamFrame{Type: frameTimeline, Payload: encounter.TimelineOf(updated, length)}); err != nil {
				log.Printf("spectator: push encounter %s: %v", encounterID, err)
				return
			}
		}
	}
}

// endFrame tells the spectator why its stream ended.
func endFrame(reason error) streamFrame {
	if errors.Is(reason, encounter.ErrSubscriberLagging) {
		return streamFrame{Type: frameLagged}
	}
	return streamFrame{Type: frameClosed}
}

func errorFrame(err error, locale string) streamFrame {
	return streamFrame{Type: frameError, Payload: errorBody{
		Code:    string(apperrors.GetCode(err)),
		Message: apperrors.LocalizedMessage(err, locale),
	}}
}
