package sessions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tat-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the session service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions/:code/start", h.startSession)
	rg.POST("/sessions/:code/responses", h.submitResponse)
	rg.GET("/sessions/:code", h.getSession)
	rg.GET("/sessions/:code/responses", h.listResponses)
}

type submitRequest struct {
	ImageIndex   int     `json:"imageIndex"`
	StoryText    string  `json:"storyText"`
	ResponseTime float64 `json:"responseTime"`
}

func (h *Handler) startSession(c *gin.Context) {
	code := c.Param("code")
	c.Set("sessionCode", code)

	session, err := h.Svc.Start(c.Request.Context(), code)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, sessionPayload(session))
}

func (h *Handler) submitResponse(c *gin.Context) {
	code := c.Param("code")
	c.Set("sessionCode", code)

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	session, response, err := h.Svc.SubmitResponse(c.Request.Context(), code, SubmitInput{
		ImageIndex:   req.ImageIndex,
		StoryText:    req.StoryText,
		ResponseTime: req.ResponseTime,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"responseId":        response.ID,
		"imageIndex":        response.ImageIndex,
		"wordCount":         response.WordCount,
		"completed":         session.IsCompleted(),
		"currentImageIndex": session.CurrentImageIndex,
		"status":            session.Status,
	})
}

func (h *Handler) getSession(c *gin.Context) {
	code := c.Param("code")
	c.Set("sessionCode", code)

	session, err := h.Svc.Get(c.Request.Context(), code)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, sessionPayload(session))
}

func (h *Handler) listResponses(c *gin.Context) {
	code := c.Param("code")
	c.Set("sessionCode", code)

	responses, err := h.Svc.Responses(c.Request.Context(), code)
	if err != nil {
		RespondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(responses))
	for _, response := range responses {
		out = append(out, gin.H{
			"responseId":   response.ID,
			"imageIndex":   response.ImageIndex,
			"imageFile":    response.ImageFile,
			"storyText":    response.StoryText,
			"wordCount":    response.WordCount,
			"responseTime": response.ResponseTime,
			"createdAt":    response.CreatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{"responses": out})
}

func sessionPayload(session Session) gin.H {
	return gin.H{
		"sessionCode":       session.SessionCode,
		"status":            session.Status,
		"currentImageIndex": session.CurrentImageIndex,
		"totalImageCount":   session.TotalImageCount,
		"completionPercent": session.CompletionPercent(),
		"startTime":         session.StartTime,
		"endTime":           session.EndTime,
		"totalDuration":     session.TotalDuration,
	}
}

// RespondError maps session-layer errors onto the standardized envelope.
func RespondError(c *gin.Context, err error) {
	var invalidState *InvalidStateError
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		respond.Error(c, http.StatusBadRequest, "validation_error", validation.Error(), gin.H{"field": validation.Field})
	case errors.As(err, &invalidState):
		respond.Error(c, http.StatusConflict, "invalid_state", invalidState.Error(), gin.H{"status": invalidState.Status})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, ErrNoActiveSession):
		respond.Error(c, http.StatusNotFound, "not_found", "no active session for participant", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected server error", nil)
	}
}
