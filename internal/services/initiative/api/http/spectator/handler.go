// Package spectator serves the read-only spectator surface of an encounter:
// JSON snapshots of the timeline and queue, and a websocket that pushes a
// fresh timeline after every committed command.
package spectator

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/louisbranch/initiative/internal/platform/errors"
	"github.com/louisbranch/initiative/internal/services/initiative/core/encounter"
)

const (
	encounterIDParam = "encounterID"
	grantQueryParam  = "grant"
)

// Subscriber opens encounter update streams.
type Subscriber interface {
	Subscribe(encounterID string) *encounter.Subscription
}

type handler struct {
	app *encounter.Service
	hub Subscriber
}

// NewHandler builds the spectator routes.
func NewHandler(app *encounter.Service, hub Subscriber) http.Handler {
	h := &handler{app: app, hub: hub}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/up", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	encounters := router.Group("/encounters/:" + encounterIDParam)
	encounters.Use(h.authorize)
	encounters.GET("/timeline", h.timeline)
	encounters.GET("/queue", h.queue)
	encounters.GET("/ws", h.stream)
	return router
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// authorize checks the spectator grant carried as a bearer token or as the
// grant query parameter, which browsers need for websocket upgrades.
func (h *handler) authorize(c *gin.Context) {
	if err := h.app.AuthorizeSpectator(c.Param(encounterIDParam), grantToken(c.Request)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Next()
}

func grantToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.URL.Query().Get(grantQueryParam))
}

func (h *handler) timeline(c *gin.Context) {
	length, ok := boundedQuery(c, "length", encounter.MaxTimelineLength)
	if !ok {
		return
	}
	view, err := h.app.ProjectTimeline(c.Request.Context(), c.Param(encounterIDParam), length)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handler) queue(c *gin.Context) {
	steps, ok := boundedQuery(c, "steps", encounter.MaxQueueSteps)
	if !ok {
		return
	}
	view, err := h.app.SimulateQueue(c.Request.Context(), c.Param(encounterIDParam), steps)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// boundedQuery reads an optional non-negative integer query value. Zero means
// the domain default.
func boundedQuery(c *gin.Context, name string, limit int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 || value > limit {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: errorBody{
			Code:    "INVALID_ARGUMENT",
			Message: name + " must be an integer between 0 and " + strconv.Itoa(limit),
		}})
		return 0, false
	}
	return value, true
}

func abortWithError(c *gin.Context, err error) {
	locale := apperrors.LocaleFromHeader(c.GetHeader("Accept-Language"))
	code := apperrors.GetCode(err)
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		log.Printf("spectator: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(code.HTTPStatus(), errorResponse{Error: errorBody{
		Code:    string(code),
		Message: apperrors.LocalizedMessage(err, locale),
	}})
}
