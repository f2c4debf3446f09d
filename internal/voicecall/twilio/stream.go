package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"voice-advisor/internal/observability"

	"github.com/gorilla/websocket"
)

// StreamEvent is an inbound media-stream frame. The Event discriminator
// selects which of the nested payloads is populated.
type StreamEvent struct {
	Event string `json:"event"`
	Start struct {
		StreamSid        string            `json:"streamSid"`
		CustomParameters map[string]string `json:"customParameters"`
	} `json:"start,omitempty"`
	Media struct {
		Payload string `json:"payload"`
	} `json:"media,omitempty"`
	Stop struct {
		StreamSid string `json:"streamSid"`
	} `json:"stop,omitempty"`
}

type outboundMediaFrame struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
	Media     struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

// Callbacks are the named callback slots injected at construction. Nil slots
// are skipped.
type Callbacks struct {
	OnStart func(streamSID string, customParameters map[string]string)
	OnMedia func(payloadBase64 string)
	OnClose func()
}

// StreamHandler owns the inbound media-stream websocket for one call.
type StreamHandler struct {
	conn       *websocket.Conn
	logger     *observability.Logger
	callbacks  Callbacks
	writeMutex sync.Mutex
	closeOnce  sync.Once
	closedOnce sync.Once
}

func NewStreamHandler(conn *websocket.Conn, logger *observability.Logger, callbacks Callbacks) *StreamHandler {
	return &StreamHandler{
		conn:      conn,
		logger:    logger,
		callbacks: callbacks,
	}
}

// ReadLoop reads inbound frames until the connection closes or a stop frame
// arrives, dispatching to the injected callbacks. Malformed frames are logged
// with the raw message and dropped; they never end the loop. OnClose fires
// exactly once when the loop exits.
func (h *StreamHandler) ReadLoop(ctx context.Context) {
	defer h.notifyClose()

	for {
		_, msg, err := h.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Info(ctx, "Media stream closed normally")
			} else {
				h.logger.Error(ctx, "Media stream read error", err)
			}
			return
		}

		var event StreamEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			h.logger.Error(ctx, fmt.Sprintf("Failed to parse media-stream frame: %s", string(msg)), err)
			continue
		}

		switch event.Event {
		case "start":
			h.logger.Info(ctx, fmt.Sprintf("Media stream started: %s", event.Start.StreamSid))
			if h.callbacks.OnStart != nil {
				h.callbacks.OnStart(event.Start.StreamSid, event.Start.CustomParameters)
			}

		case "media":
			if h.callbacks.OnMedia != nil {
				h.callbacks.OnMedia(event.Media.Payload)
			}

		case "stop":
			h.logger.Info(ctx, fmt.Sprintf("Media stream stopped: %s", event.Stop.StreamSid))
			return

		default:
			h.logger.Debug(ctx, fmt.Sprintf("Ignoring media-stream event: %s", event.Event))
		}
	}
}

// Send serializes one outbound media frame addressed to streamSID and writes
// it to the connection.
func (h *StreamHandler) Send(streamSID, payloadBase64 string) error {
	frame := outboundMediaFrame{Event: "media", StreamSid: streamSID}
	frame.Media.Payload = payloadBase64

	msg, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal media frame: %w", err)
	}

	h.writeMutex.Lock()
	defer h.writeMutex.Unlock()
	if err := h.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("failed to write media frame: %w", err)
	}
	return nil
}

// Close sends a close message and closes the connection. Safe to call
// multiple times.
func (h *StreamHandler) Close() {
	h.closeOnce.Do(func() {
		h.writeMutex.Lock()
		h.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		h.writeMutex.Unlock()
		h.conn.Close()
	})
}

func (h *StreamHandler) notifyClose() {
	h.closedOnce.Do(func() {
		if h.callbacks.OnClose != nil {
			h.callbacks.OnClose()
		}
	})
}
