package api

import (
	"net/http"

	voicecallHandler "voice-advisor/internal/voicecall/handler"

	"github.com/gin-gonic/gin"
)

type API struct {
	router           *gin.RouterGroup
	voiceCallHandler voicecallHandler.Handler
}

func New(router *gin.RouterGroup, voiceCallHandler voicecallHandler.Handler) API {
	return API{
		router:           router,
		voiceCallHandler: voiceCallHandler,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	a.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hi, this is Simon. Please direct all calls to: /api/phone/incoming-call"})
	})

	apiGroup := a.router.Group("/api")
	{
		phoneGroup := apiGroup.Group("/phone")
		// The telephony provider may hit the webhook with GET or POST.
		phoneGroup.GET("/incoming-call", a.voiceCallHandler.HandleIncomingCall)
		phoneGroup.POST("/incoming-call", a.voiceCallHandler.HandleIncomingCall)
		phoneGroup.GET("/media-stream", a.voiceCallHandler.HandleMediaStream)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
