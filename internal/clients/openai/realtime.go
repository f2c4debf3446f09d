package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"voice-advisor/internal/observability"

	"github.com/gorilla/websocket"
)

const realtimeURL = "wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview-2024-10-01"

// The provider drops configuration sent immediately after the dial, so the
// session.update is delayed briefly. Audio is accepted only once the
// configuration is on the wire.
const settleDelay = 250 * time.Millisecond

var ErrNotConnected = errors.New("realtime session is not connected")

// State is the realtime session connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

// ToolHandler executes a tool call with the raw JSON arguments emitted by the
// model and returns the tool output as JSON text.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// ToolDefinition describes a callable exposed to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON schema for the arguments
	Handler     ToolHandler
}

// TurnDetection holds server-side voice activity detection settings.
type TurnDetection struct {
	Type              string
	Threshold         float64
	PrefixPaddingMs   int
	SilenceDurationMs int
}

// SessionConfig is applied once per call via session.update.
type SessionConfig struct {
	TurnDetection      TurnDetection
	InputAudioFormat   string
	OutputAudioFormat  string
	Voice              string
	TranscriptionModel string
	Instructions       string
	Modalities         []string
	Temperature        float64
	Tools              []ToolDefinition
}

// Callbacks are the named callback slots a session owner injects at
// construction. Nil slots are skipped.
type Callbacks struct {
	OnAudioDelta              func(payloadBase64 string)
	OnTranscriptDone          func(text, speaker string)
	OnConversationItemCreated func()
	OnSessionUpdated          func()
	OnDisconnected            func()
	OnError                   func(err error)
}

// RealtimeSession owns one websocket connection to the OpenAI Realtime API.
type RealtimeSession struct {
	apiKey    string
	url       string
	logger    *observability.Logger
	callbacks Callbacks
	tools     map[string]ToolDefinition

	mu    sync.Mutex // guards conn writes and state
	conn  *websocket.Conn
	state State

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewRealtimeSession(apiKey string, logger *observability.Logger, callbacks Callbacks) *RealtimeSession {
	return &RealtimeSession{
		apiKey:    apiKey,
		url:       realtimeURL,
		logger:    logger,
		callbacks: callbacks,
		tools:     make(map[string]ToolDefinition),
		ctx:       context.Background(),
		cancel:    func() {},
	}
}

// State returns the current connection state.
func (s *RealtimeSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *RealtimeSession) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Connect dials the realtime endpoint, starts the read loop, and schedules the
// session configuration after the settling delay. Tool handlers from cfg are
// registered for dispatch.
func (s *RealtimeSession) Connect(ctx context.Context, cfg SessionConfig) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return fmt.Errorf("realtime session already started")
	}
	s.state = StateConnecting
	s.mu.Unlock()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+s.apiKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, s.url, headers)
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("failed to dial realtime endpoint: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.ctx = sessionCtx
	s.cancel = cancel

	for _, tool := range cfg.Tools {
		s.tools[tool.Name] = tool
	}

	go s.readLoop(conn)

	go func() {
		select {
		case <-sessionCtx.Done():
			return
		case <-time.After(settleDelay):
		}
		if err := s.send(newSessionUpdate(cfg)); err != nil {
			s.logger.Error(sessionCtx, "Failed to send session configuration", err)
			return
		}
		s.setState(StateConnected)
		s.logger.Info(sessionCtx, "Realtime session configured")
	}()

	return nil
}

// AppendInputAudio streams one base64 audio chunk to the provider,
// fire-and-forget.
func (s *RealtimeSession) AppendInputAudio(payloadBase64 string) error {
	if s.State() != StateConnected {
		return ErrNotConnected
	}
	return s.send(audioAppendEvent{Type: "input_audio_buffer.append", Audio: payloadBase64})
}

// CreateResponse requests the next spoken turn from the model.
func (s *RealtimeSession) CreateResponse() error {
	if s.State() != StateConnected {
		return ErrNotConnected
	}
	return s.send(responseCreateEvent{Type: "response.create"})
}

// SendUserMessage injects a synthetic user text turn.
func (s *RealtimeSession) SendUserMessage(text string) error {
	if s.State() != StateConnected {
		return ErrNotConnected
	}
	return s.send(conversationItemCreateEvent{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type: "message",
			Role: "user",
			Content: []conversationContent{
				{Type: "input_text", Text: text},
			},
		},
	})
}

// Disconnect closes the session. Safe to call multiple times.
func (s *RealtimeSession) Disconnect() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		conn := s.conn
		s.mu.Unlock()

		s.cancel()
		if conn != nil {
			deadline := time.Now().Add(time.Second)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			conn.Close()
		}
	})
}

func (s *RealtimeSession) send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed || s.conn == nil {
		return ErrNotConnected
	}
	return s.conn.WriteJSON(v)
}

func (s *RealtimeSession) readLoop(conn *websocket.Conn) {
	defer func() {
		s.Disconnect()
		if s.callbacks.OnDisconnected != nil {
			s.callbacks.OnDisconnected()
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if s.State() == StateClosed ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info(s.ctx, "Realtime connection closed")
			} else {
				s.logger.Error(s.ctx, "Realtime read error", err)
				if s.callbacks.OnError != nil {
					s.callbacks.OnError(err)
				}
			}
			return
		}
		s.dispatch(msg)
	}
}

func (s *RealtimeSession) dispatch(raw []byte) {
	var event serverEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		s.logger.Error(s.ctx, fmt.Sprintf("Failed to parse realtime event: %s", string(raw)), err)
		return
	}

	switch event.Type {
	case "session.updated":
		s.logger.Info(s.ctx, "Realtime session updated")
		if s.callbacks.OnSessionUpdated != nil {
			s.callbacks.OnSessionUpdated()
		}

	case "response.audio.delta":
		if event.Delta != "" && s.callbacks.OnAudioDelta != nil {
			s.callbacks.OnAudioDelta(event.Delta)
		}

	case "response.audio_transcript.done":
		if s.callbacks.OnTranscriptDone != nil {
			s.callbacks.OnTranscriptDone(event.Transcript, "ai")
		}

	case "conversation.item.input_audio_transcription.completed":
		if s.callbacks.OnTranscriptDone != nil {
			s.callbacks.OnTranscriptDone(event.Transcript, "user")
		}

	case "conversation.item.created":
		if s.callbacks.OnConversationItemCreated != nil {
			s.callbacks.OnConversationItemCreated()
		}

	case "response.function_call_arguments.done":
		// Tool handlers do their own I/O; keep the read loop free.
		go s.invokeTool(event.Name, event.CallID, event.Arguments)

	case "error":
		err := fmt.Errorf("realtime API error: %s", string(raw))
		if event.Error != nil {
			err = fmt.Errorf("realtime API error %s: %s", event.Error.Code, event.Error.Message)
		}
		s.logger.Error(s.ctx, "Realtime API reported an error", err)
		if s.callbacks.OnError != nil {
			s.callbacks.OnError(err)
		}

	default:
		s.logger.Debug(s.ctx, fmt.Sprintf("Unhandled realtime event: %s", event.Type))
	}
}

// invokeTool runs a registered tool handler and returns its output to the
// model as a function_call_output item, followed by a response.create so the
// model speaks the result. Handler failures become a tool-error payload, never
// a session failure.
func (s *RealtimeSession) invokeTool(name, callID, arguments string) {
	tool, ok := s.tools[name]
	if !ok {
		s.logger.Warn(s.ctx, fmt.Sprintf("Tool call for unregistered tool: %s", name))
		return
	}

	output, err := tool.Handler(s.ctx, json.RawMessage(arguments))
	if err != nil {
		s.logger.Error(s.ctx, fmt.Sprintf("Tool %q failed", name), err)
		errBody, _ := json.Marshal(map[string]string{"error": err.Error()})
		output = string(errBody)
	}

	result := conversationItemCreateEvent{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	}
	if err := s.send(result); err != nil {
		s.logger.Error(s.ctx, fmt.Sprintf("Failed to return output of tool %q", name), err)
		return
	}
	if err := s.CreateResponse(); err != nil {
		s.logger.Error(s.ctx, "Failed to request response after tool call", err)
	}
}
