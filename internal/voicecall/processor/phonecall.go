package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"voice-advisor/internal/clients/calculator"
	"voice-advisor/internal/clients/openai"
	"voice-advisor/internal/voicecall/bridge"
	"voice-advisor/internal/voicecall/prompt"
	twilioStream "voice-advisor/internal/voicecall/twilio"

	"github.com/gorilla/websocket"
)

// HandlePhoneCall runs one phone call over an upgraded media-stream
// connection. It constructs the per-call bridge and both adapters, wires the
// callbacks, and blocks until either leg closes. Each call is fully
// independent; no state is shared between sessions.
func (v *VoiceCallProcessor) HandlePhoneCall(ctx context.Context, conn *websocket.Conn) {
	br := bridge.New(v.inactivityTimeout, prompt.Opener, v.logger)

	session := openai.NewRealtimeSession(v.openAIAPIKey, v.logger, openai.Callbacks{
		OnAudioDelta:              br.OnAIAudioDelta,
		OnTranscriptDone:          br.OnAITranscriptDone,
		OnConversationItemCreated: br.OnAIConversationItemCreated,
		OnSessionUpdated:          br.OnAISessionUpdated,
		OnDisconnected:            br.Teardown,
		OnError:                   br.OnAIError,
	})

	stream := twilioStream.NewStreamHandler(conn, v.logger, twilioStream.Callbacks{
		OnStart: br.OnTelephonyStreamStarted,
		OnMedia: br.OnTelephonyMediaFrame,
		OnClose: br.Teardown,
	})

	br.Bind(session, stream)
	br.Start(ctx, v.sessionConfig())
	defer br.Teardown()

	stream.ReadLoop(ctx)
}

func (v *VoiceCallProcessor) sessionConfig() openai.SessionConfig {
	return openai.SessionConfig{
		TurnDetection: openai.TurnDetection{
			Type:              "server_vad",
			Threshold:         0.5,
			PrefixPaddingMs:   200,
			SilenceDurationMs: 500,
		},
		InputAudioFormat:   "g711_ulaw",
		OutputAudioFormat:  "g711_ulaw",
		Voice:              v.voice,
		TranscriptionModel: "whisper-1",
		Instructions:       prompt.Instructions,
		Modalities:         []string{"text", "audio"},
		Temperature:        0.8,
		Tools:              []openai.ToolDefinition{v.eligibilityTool()},
	}
}

// eligibilityTool exposes the external benefits calculator to the model. The
// eligibility formula is owned entirely by the remote service.
func (v *VoiceCallProcessor) eligibilityTool() openai.ToolDefinition {
	return openai.ToolDefinition{
		Name:        "compute_eligibility",
		Description: "Berechnet den Anspruch auf Sozialleistungen basierend auf den bereitgestellten Parametern",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"postalCode": map[string]interface{}{
					"type":        "string",
					"description": "Postleitzahl der Wohnung",
				},
				"rent": map[string]interface{}{
					"type":        "number",
					"description": "Warmmiete pro Monat",
				},
				"income": map[string]interface{}{
					"type":        "number",
					"description": "Nettoverdienst pro Monat",
				},
				"numAdults": map[string]interface{}{
					"type":        "number",
					"description": "Anzahl der Erwachsenen im Haushalt",
				},
				"numChildren": map[string]interface{}{
					"type":        "number",
					"description": "Anzahl der Kinder im Haushalt",
				},
			},
			"required": []string{"postalCode", "rent", "income", "numAdults", "numChildren"},
		},
		Handler: v.computeEligibility,
	}
}

func (v *VoiceCallProcessor) computeEligibility(ctx context.Context, args json.RawMessage) (string, error) {
	var input calculator.EligibilityInput
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("failed to parse eligibility arguments: %w", err)
	}
	return v.calculator.Compute(ctx, input)
}
