package handler

import (
	"net/http"

	"voice-advisor/internal/observability"
	"voice-advisor/internal/voicecall/processor"

	"github.com/gorilla/websocket"
)

type Handler struct {
	voiceProcessor *processor.VoiceCallProcessor
	logger         *observability.Logger
}

func New(voiceProcessor *processor.VoiceCallProcessor, logger *observability.Logger) Handler {
	return Handler{
		voiceProcessor: voiceProcessor,
		logger:         logger,
	}
}

// upgrader is a shared WebSocket upgrader. Media-stream connections come from
// the telephony provider's infrastructure, not browsers.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}
