package openai

// Wire shapes for the realtime websocket protocol. Only fields this service
// reads or writes are declared; everything else is ignored on decode.

type serverEvent struct {
	Type       string       `json:"type"`
	Delta      string       `json:"delta,omitempty"`
	Transcript string       `json:"transcript,omitempty"`
	Name       string       `json:"name,omitempty"`
	CallID     string       `json:"call_id,omitempty"`
	Arguments  string       `json:"arguments,omitempty"`
	Error      *serverError `json:"error,omitempty"`
}

type serverError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type audioAppendEvent struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type responseCreateEvent struct {
	Type string `json:"type"`
}

type conversationItemCreateEvent struct {
	Type string           `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string                `json:"type"`
	Role    string                `json:"role,omitempty"`
	CallID  string                `json:"call_id,omitempty"`
	Output  string                `json:"output,omitempty"`
	Content []conversationContent `json:"content,omitempty"`
}

type conversationContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type sessionUpdateEvent struct {
	Type    string         `json:"type"`
	Session sessionPayload `json:"session"`
}

type sessionPayload struct {
	TurnDetection           turnDetectionPayload  `json:"turn_detection"`
	InputAudioFormat        string                `json:"input_audio_format"`
	OutputAudioFormat       string                `json:"output_audio_format"`
	Voice                   string                `json:"voice"`
	InputAudioTranscription *transcriptionPayload `json:"input_audio_transcription,omitempty"`
	Instructions            string                `json:"instructions"`
	Modalities              []string              `json:"modalities"`
	Temperature             float64               `json:"temperature"`
	Tools                   []toolPayload         `json:"tools,omitempty"`
}

type turnDetectionPayload struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
}

type transcriptionPayload struct {
	Model string `json:"model"`
}

type toolPayload struct {
	Type        string                 `json:"type"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

func newSessionUpdate(cfg SessionConfig) sessionUpdateEvent {
	session := sessionPayload{
		TurnDetection: turnDetectionPayload{
			Type:              cfg.TurnDetection.Type,
			Threshold:         cfg.TurnDetection.Threshold,
			PrefixPaddingMs:   cfg.TurnDetection.PrefixPaddingMs,
			SilenceDurationMs: cfg.TurnDetection.SilenceDurationMs,
		},
		InputAudioFormat:  cfg.InputAudioFormat,
		OutputAudioFormat: cfg.OutputAudioFormat,
		Voice:             cfg.Voice,
		Instructions:      cfg.Instructions,
		Modalities:        cfg.Modalities,
		Temperature:       cfg.Temperature,
	}
	if cfg.TranscriptionModel != "" {
		session.InputAudioTranscription = &transcriptionPayload{Model: cfg.TranscriptionModel}
	}
	for _, tool := range cfg.Tools {
		session.Tools = append(session.Tools, toolPayload{
			Type:        "function",
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return sessionUpdateEvent{Type: "session.update", Session: session}
}
