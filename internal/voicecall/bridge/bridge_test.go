package bridge

import (
	"context"
	"testing"
	"time"

	"voice-advisor/internal/clients/openai"
	"voice-advisor/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAISession is a mock implementation of AISession
type MockAISession struct {
	mock.Mock
}

func (m *MockAISession) Connect(ctx context.Context, cfg openai.SessionConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockAISession) AppendInputAudio(payloadBase64 string) error {
	args := m.Called(payloadBase64)
	return args.Error(0)
}

func (m *MockAISession) CreateResponse() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockAISession) SendUserMessage(text string) error {
	args := m.Called(text)
	return args.Error(0)
}

func (m *MockAISession) Disconnect() {
	m.Called()
}

// MockTelephonyStream is a mock implementation of TelephonyStream
type MockTelephonyStream struct {
	mock.Mock
}

func (m *MockTelephonyStream) Send(streamSID, payloadBase64 string) error {
	args := m.Called(streamSID, payloadBase64)
	return args.Error(0)
}

func (m *MockTelephonyStream) Close() {
	m.Called()
}

func newTestBridge(t *testing.T) (*Bridge, *MockAISession, *MockTelephonyStream) {
	t.Helper()
	session := new(MockAISession)
	telephony := new(MockTelephonyStream)
	br := New(0, "Guten Tag!", observability.NewLogger())
	br.Bind(session, telephony)
	return br, session, telephony
}

func TestAudioDeltaBeforeStartIsDropped(t *testing.T) {
	br, _, telephony := newTestBridge(t)

	// No start frame yet: there is no stream identifier to address frames with.
	br.OnAIAudioDelta("AAA=")
	br.OnAIAudioDelta("BBB=")

	telephony.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	assert.Equal(t, uint64(2), br.counters.DroppedNoStreamSID.Load())
	assert.Equal(t, uint64(0), br.counters.FramesSent.Load())
}

func TestAudioDeltaAfterStartUsesStreamSID(t *testing.T) {
	br, _, telephony := newTestBridge(t)

	br.OnTelephonyStreamStarted("MZ123", map[string]string{
		"From": "+4917641083120", "To": "+13053636127", "CallSid": "CA123", "is_incoming": "true",
	})

	telephony.On("Send", "MZ123", "BBB=").Return(nil).Once()
	telephony.On("Send", "MZ123", "CCC=").Return(nil).Once()

	br.OnAIAudioDelta("BBB=")
	br.OnAIAudioDelta("CCC=")

	telephony.AssertExpectations(t)
	assert.Equal(t, uint64(2), br.counters.FramesSent.Load())
}

func TestMediaFrameForwardedToAI(t *testing.T) {
	br, session, _ := newTestBridge(t)

	session.On("AppendInputAudio", "AAA=").Return(nil).Once()

	br.OnTelephonyMediaFrame("AAA=")

	session.AssertExpectations(t)
	assert.Equal(t, uint64(1), br.counters.AudioSentToAI.Load())
}

func TestMediaFrameDroppedWhileAINotConnected(t *testing.T) {
	br, session, _ := newTestBridge(t)

	session.On("AppendInputAudio", mock.Anything).Return(openai.ErrNotConnected)

	br.OnTelephonyMediaFrame("AAA=")
	br.OnTelephonyMediaFrame("BBB=")

	assert.Equal(t, uint64(2), br.counters.DroppedNotConnected.Load())
	assert.Equal(t, uint64(0), br.counters.AudioSentToAI.Load())
}

func TestTeardownIsIdempotent(t *testing.T) {
	br, session, telephony := newTestBridge(t)

	session.On("Disconnect").Return().Once()
	telephony.On("Close").Return().Once()

	// Both connection close handlers may race into teardown.
	br.Teardown()
	br.Teardown()

	session.AssertExpectations(t)
	session.AssertNumberOfCalls(t, "Disconnect", 1)
	telephony.AssertNumberOfCalls(t, "Close", 1)
}

func TestOperationsAfterTeardownAreNoOps(t *testing.T) {
	br, session, telephony := newTestBridge(t)

	session.On("Disconnect").Return()
	telephony.On("Close").Return()
	br.Teardown()

	br.OnTelephonyMediaFrame("AAA=")
	br.OnAIAudioDelta("BBB=")
	br.OnAISessionUpdated()

	session.AssertNotCalled(t, "AppendInputAudio", mock.Anything)
	session.AssertNotCalled(t, "SendUserMessage", mock.Anything)
	telephony.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestStartDegradesGracefullyWhenSessionSetupFails(t *testing.T) {
	br, session, _ := newTestBridge(t)

	session.On("Connect", mock.Anything, mock.Anything).Return(assert.AnError)

	// Must not panic; the call continues without AI audio.
	br.Start(context.Background(), openai.SessionConfig{})

	assert.Equal(t, StateAwaitingStart, br.currentState())
}

func TestSessionUpdatedTriggersScriptedOpener(t *testing.T) {
	br, session, _ := newTestBridge(t)

	session.On("SendUserMessage", "Guten Tag!").Return(nil).Once()
	session.On("CreateResponse").Return(nil).Once()

	br.OnAISessionUpdated()

	session.AssertExpectations(t)
}

func TestAIErrorEndsTheCall(t *testing.T) {
	br, session, telephony := newTestBridge(t)

	session.On("Disconnect").Return().Once()
	telephony.On("Close").Return().Once()

	br.OnAIError(assert.AnError)

	assert.Equal(t, StateClosed, br.currentState())
	session.AssertExpectations(t)
	telephony.AssertExpectations(t)
}

func TestCallScenarioRoundTrip(t *testing.T) {
	// connection opens -> start MZ123 -> one inbound media frame -> one AI
	// audio delta -> exactly one outbound frame addressed to MZ123.
	br, session, telephony := newTestBridge(t)

	session.On("AppendInputAudio", "AAA=").Return(nil).Once()
	telephony.On("Send", "MZ123", "BBB=").Return(nil).Once()

	br.OnTelephonyStreamStarted("MZ123", map[string]string{"From": "+491234", "To": "+1555", "CallSid": "CA1"})
	br.OnTelephonyMediaFrame("AAA=")
	br.OnAIAudioDelta("BBB=")

	session.AssertExpectations(t)
	telephony.AssertExpectations(t)
	assert.Equal(t, uint64(1), br.counters.FramesSent.Load())
}

func TestDuplicateStartFrameIgnored(t *testing.T) {
	br, _, telephony := newTestBridge(t)

	br.OnTelephonyStreamStarted("MZ123", nil)
	br.OnTelephonyStreamStarted("MZ999", nil)

	telephony.On("Send", "MZ123", "BBB=").Return(nil).Once()
	br.OnAIAudioDelta("BBB=")

	telephony.AssertExpectations(t)
}

func TestInactivityNudgeRequestsResponse(t *testing.T) {
	session := new(MockAISession)
	telephony := new(MockTelephonyStream)
	br := New(30*time.Millisecond, "", observability.NewLogger())
	br.Bind(session, telephony)

	session.On("Connect", mock.Anything, mock.Anything).Return(nil)
	session.On("CreateResponse").Return(nil)
	session.On("Disconnect").Return()
	telephony.On("Close").Return()

	br.Start(context.Background(), openai.SessionConfig{})
	time.Sleep(45 * time.Millisecond)
	br.Teardown()

	session.AssertCalled(t, "CreateResponse")
}
