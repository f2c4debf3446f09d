package handler

import (
	"fmt"

	"voice-advisor/internal/apierrors"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/twiml"
)

// HandleIncomingCall answers the inbound-call webhook with a TwiML document
// that opens a bidirectional media stream back to this server, carrying the
// caller metadata as stream-scoped custom parameters.
func (h *Handler) HandleIncomingCall(c *gin.Context) {
	ctx := c.Request.Context()

	from := c.Query("From")
	to := c.Query("To")
	callSID := c.Query("CallSid")

	wsURL := fmt.Sprintf("wss://%s/api/phone/media-stream", c.Request.Host)

	stream := twiml.VoiceStream{
		Url: wsURL,
		InnerElements: []twiml.Element{
			twiml.VoiceParameter{Name: "is_incoming", Value: "true"},
			twiml.VoiceParameter{Name: "From", Value: from},
			twiml.VoiceParameter{Name: "To", Value: to},
			twiml.VoiceParameter{Name: "CallSid", Value: callSID},
		},
	}
	connect := twiml.VoiceConnect{
		InnerElements: []twiml.Element{stream},
	}

	twimlResult, err := twiml.Voice([]twiml.Element{connect})
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	h.logger.Info(ctx, fmt.Sprintf("Answering incoming call %s with stream URL %s", callSID, wsURL))
	c.Header("Content-Type", "text/xml")
	c.String(200, twimlResult)
}

// HandleMediaStream upgrades the streaming endpoint to a websocket and runs
// one call session on it until either side closes.
func (h *Handler) HandleMediaStream(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(ctx, "WebSocket upgrade failed", err)
		return
	}
	defer conn.Close()

	h.logger.Info(ctx, "Media-stream connection established")
	h.voiceProcessor.HandlePhoneCall(ctx, conn)
	h.logger.Info(ctx, "Media-stream connection finished")
}
