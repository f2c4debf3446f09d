package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"voice-advisor/internal/clients/openai"
	"voice-advisor/internal/observability"
)

// State is the bridge lifecycle state. There is no transition out of
// StateClosed; every operation after it is a no-op.
type State int

const (
	StateAwaitingStart State = iota
	StateActive
	StateClosed
)

// AISession is the realtime voice session the bridge drives.
type AISession interface {
	Connect(ctx context.Context, cfg openai.SessionConfig) error
	AppendInputAudio(payloadBase64 string) error
	CreateResponse() error
	SendUserMessage(text string) error
	Disconnect()
}

// TelephonyStream is the outbound leg toward the telephony provider.
type TelephonyStream interface {
	Send(streamSID, payloadBase64 string) error
	Close()
}

// Counters are per-session diagnostic tallies. No correctness dependency.
type Counters struct {
	MediaReceived       atomic.Uint64
	AudioSentToAI       atomic.Uint64
	AudioDeltasReceived atomic.Uint64
	FramesSent          atomic.Uint64
	DroppedNotConnected atomic.Uint64
	DroppedNoStreamSID  atomic.Uint64
}

// Bridge relays one phone call between the telephony media stream and the AI
// voice session. It is the sole owner of its call-scoped state; nothing here
// is shared across concurrent calls.
type Bridge struct {
	logger *observability.Logger
	opener string

	mu         sync.Mutex
	state      State
	streamSID  string
	from       string
	to         string
	callSID    string
	isIncoming bool

	session   AISession
	telephony TelephonyStream
	watchdog  *Watchdog

	counters     Counters
	teardownOnce sync.Once
	ctx          context.Context
}

// New creates a bridge with the inactivity timeout armed but no adapters
// attached yet; both adapters reference the bridge's callbacks, so they are
// bound afterwards via Bind.
func New(inactivityTimeout time.Duration, opener string, logger *observability.Logger) *Bridge {
	b := &Bridge{
		logger: logger,
		opener: opener,
		ctx:    context.Background(),
	}
	b.watchdog = NewWatchdog(inactivityTimeout, b.onInactivity)
	return b
}

// Bind attaches the two adapters. Must be called before Start.
func (b *Bridge) Bind(session AISession, telephony TelephonyStream) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = session
	b.telephony = telephony
}

// Start initiates the AI session handshake and arms the watchdog. A rejected
// session setup is logged and leaves the call in a degraded silent mode; it
// never fails the call.
func (b *Bridge) Start(ctx context.Context, cfg openai.SessionConfig) {
	b.ctx = ctx
	if err := b.session.Connect(ctx, cfg); err != nil {
		b.logger.Error(ctx, "AI session setup failed, call continues without AI audio", err)
	}
	b.watchdog.Start()
}

// OnTelephonyStreamStarted records the stream identifier and caller metadata
// from the start frame. This is the only point at which outbound audio
// becomes deliverable.
func (b *Bridge) OnTelephonyStreamStarted(streamSID string, customParameters map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateAwaitingStart {
		return
	}
	b.state = StateActive
	b.streamSID = streamSID
	b.from = customParameters["From"]
	b.to = customParameters["To"]
	b.callSID = customParameters["CallSid"]
	b.isIncoming = customParameters["is_incoming"] == "true"

	b.logger.Info(observability.WithFields(b.ctx,
		observability.Field{Key: "stream_sid", Value: streamSID},
		observability.Field{Key: "call_sid", Value: b.callSID},
		observability.Field{Key: "from", Value: b.from},
		observability.Field{Key: "to", Value: b.to},
	), "Call stream started")
}

// OnTelephonyMediaFrame forwards one inbound audio payload to the AI session
// in arrival order. Dropped and counted while the session is not connected.
func (b *Bridge) OnTelephonyMediaFrame(payloadBase64 string) {
	if b.currentState() == StateClosed {
		return
	}
	b.counters.MediaReceived.Add(1)

	if err := b.session.AppendInputAudio(payloadBase64); err != nil {
		if errors.Is(err, openai.ErrNotConnected) {
			b.counters.DroppedNotConnected.Add(1)
			return
		}
		b.logger.Error(b.ctx, "Failed to forward caller audio", err)
		return
	}
	b.counters.AudioSentToAI.Add(1)
}

// OnAIAudioDelta wraps one synthesized audio payload in an outbound media
// frame and sends it to the telephony side. Unaddressable frames (no stream
// identifier yet) are dropped and counted, never surfaced to the caller.
func (b *Bridge) OnAIAudioDelta(payloadBase64 string) {
	b.mu.Lock()
	streamSID := b.streamSID
	closed := b.state == StateClosed
	b.mu.Unlock()
	if closed {
		return
	}
	b.counters.AudioDeltasReceived.Add(1)

	if streamSID == "" {
		dropped := b.counters.DroppedNoStreamSID.Add(1)
		b.logger.Warn(b.ctx, fmt.Sprintf("Dropping AI audio, stream not started yet (%d dropped)", dropped))
		return
	}

	if err := b.telephony.Send(streamSID, payloadBase64); err != nil {
		b.logger.Error(b.ctx, "Failed to send audio to caller", err)
		return
	}
	b.counters.FramesSent.Add(1)
}

// OnAITranscriptDone logs a finished transcript for one speaker.
func (b *Bridge) OnAITranscriptDone(text, speaker string) {
	b.logger.Info(b.ctx, fmt.Sprintf("%s: %s", speaker, text))
}

// OnAIConversationItemCreated records conversational activity and reschedules
// the inactivity watchdog.
func (b *Bridge) OnAIConversationItemCreated() {
	if b.currentState() == StateClosed {
		return
	}
	b.watchdog.Reset()
}

// OnAISessionUpdated runs the scripted opener once the session configuration
// is acknowledged.
func (b *Bridge) OnAISessionUpdated() {
	if b.currentState() == StateClosed || b.opener == "" {
		return
	}
	if err := b.session.SendUserMessage(b.opener); err != nil {
		b.logger.Error(b.ctx, "Failed to send conversation opener", err)
		return
	}
	if err := b.session.CreateResponse(); err != nil {
		b.logger.Error(b.ctx, "Failed to request opening response", err)
	}
}

// OnAIError handles a terminal error on the AI leg. The call ends; other
// calls are unaffected.
func (b *Bridge) OnAIError(err error) {
	if b.currentState() == StateClosed {
		return
	}
	b.logger.Error(b.ctx, "AI session error, ending call", err)
	b.Teardown()
}

// onInactivity nudges a stalled conversation with a fresh response request.
// It never closes the call.
func (b *Bridge) onInactivity() {
	if b.currentState() == StateClosed {
		return
	}
	b.logger.Info(b.ctx, "Conversation idle, requesting a fresh response")
	if err := b.session.CreateResponse(); err != nil {
		b.logger.Debug(b.ctx, fmt.Sprintf("Inactivity nudge skipped: %v", err))
	}
}

// Teardown closes both legs and cancels the watchdog. Idempotent; safe to
// call from either connection's close path.
func (b *Bridge) Teardown() {
	b.teardownOnce.Do(func() {
		b.mu.Lock()
		b.state = StateClosed
		b.mu.Unlock()

		b.watchdog.Stop()
		if b.session != nil {
			b.session.Disconnect()
		}
		if b.telephony != nil {
			b.telephony.Close()
		}

		b.logger.Info(observability.WithFields(b.ctx,
			observability.Field{Key: "media_received", Value: b.counters.MediaReceived.Load()},
			observability.Field{Key: "audio_sent_to_ai", Value: b.counters.AudioSentToAI.Load()},
			observability.Field{Key: "audio_deltas_received", Value: b.counters.AudioDeltasReceived.Load()},
			observability.Field{Key: "frames_sent", Value: b.counters.FramesSent.Load()},
			observability.Field{Key: "dropped_not_connected", Value: b.counters.DroppedNotConnected.Load()},
			observability.Field{Key: "dropped_no_stream_sid", Value: b.counters.DroppedNoStreamSID.Load()},
		), "Call ended")
	})
}

func (b *Bridge) currentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
