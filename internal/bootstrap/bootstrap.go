package bootstrap

import (
	"context"

	"voice-advisor/internal/clients/calculator"
	"voice-advisor/internal/config"
	"voice-advisor/internal/observability"
	voicecallHandler "voice-advisor/internal/voicecall/handler"
	voicecallProcessor "voice-advisor/internal/voicecall/processor"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	Logger           *observability.Logger
	CalculatorClient *calculator.Client
	VoiceCallHandler voicecallHandler.Handler
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	deps.CalculatorClient = calculator.New(cfg.Services.CalculatorURL, logger)

	voiceProcessor := voicecallProcessor.NewVoiceCallProcessor(
		cfg.Services.OpenAIAPIKey,
		cfg.Voice.Voice,
		cfg.Voice.InactivityTimeout,
		deps.CalculatorClient,
		logger,
	)
	deps.VoiceCallHandler = voicecallHandler.New(voiceProcessor, logger)

	logger.Info(ctx, "Dependencies initialized")
	return deps, nil
}
