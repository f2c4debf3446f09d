package processor

import (
	"time"

	"voice-advisor/internal/clients/calculator"
	"voice-advisor/internal/observability"
)

type VoiceCallProcessor struct {
	openAIAPIKey      string
	voice             string
	inactivityTimeout time.Duration
	calculator        *calculator.Client
	logger            *observability.Logger
}

func NewVoiceCallProcessor(openAIAPIKey, voice string, inactivityTimeout time.Duration,
	calc *calculator.Client, logger *observability.Logger) *VoiceCallProcessor {
	return &VoiceCallProcessor{
		openAIAPIKey:      openAIAPIKey,
		voice:             voice,
		inactivityTimeout: inactivityTimeout,
		calculator:        calc,
		logger:            logger,
	}
}
