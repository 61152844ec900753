package analyses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tat-backend/internal/sessions"
	"tat-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions/:code/analyses", h.createAnalysis)
	rg.GET("/sessions/:code/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
}

type createRequest struct {
	Type       string `json:"type"`
	ResponseID string `json:"responseId"`
}

func (h *Handler) createAnalysis(c *gin.Context) {
	code := c.Param("code")
	c.Set("sessionCode", code)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Type == "" {
		req.Type = TypeSession
	}

	var analysis Analysis
	var err error
	switch req.Type {
	case TypeSession:
		analysis, err = h.Svc.AnalyzeSession(c.Request.Context(), code)
	case TypeIndividual:
		if req.ResponseID == "" {
			respond.Error(c, http.StatusBadRequest, "validation_error", "responseId is required for individual analysis", gin.H{"field": "responseId"})
			return
		}
		analysis, err = h.Svc.AnalyzeResponse(c.Request.Context(), code, req.ResponseID)
	default:
		respond.Error(c, http.StatusBadRequest, "validation_error", "type must be session or individual", gin.H{"field": "type"})
		return
	}
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Set("analysisId", analysis.ID)
	respond.JSON(c, http.StatusCreated, analysisPayload(analysis))
}

func (h *Handler) listAnalyses(c *gin.Context) {
	code := c.Param("code")
	c.Set("sessionCode", code)

	list, err := h.Svc.ListBySession(c.Request.Context(), code)
	if err != nil {
		RespondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, analysis := range list {
		out = append(out, analysisPayload(analysis))
	}
	respond.JSON(c, http.StatusOK, gin.H{"analyses": out})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysisID := c.Param("id")
	c.Set("analysisId", analysisID)

	analysis, err := h.Svc.Get(c.Request.Context(), analysisID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, analysisPayload(analysis))
}

func analysisPayload(analysis Analysis) gin.H {
	return gin.H{
		"analysisId":        analysis.ID,
		"type":              analysis.Type,
		"responseId":        analysis.ResponseID,
		"provider":          analysis.Provider,
		"model":             analysis.Model,
		"themes":            analysis.Themes,
		"personalityTraits": analysis.PersonalityTraits,
		"emotionalPatterns": analysis.EmotionalPatterns,
		"recommendations":   analysis.Recommendations,
		"confidence":        analysis.Confidence,
		"rawAnalysis":       analysis.RawAnalysis,
		"degraded":          analysis.Degraded,
		"createdAt":         analysis.CreatedAt,
	}
}

// RespondError maps analysis-layer errors onto the standardized envelope,
// deferring session-layer errors to the session mapping.
func RespondError(c *gin.Context, err error) {
	var incomplete *IncompleteDataError
	var unavailable *AnalysisUnavailableError
	switch {
	case errors.As(err, &incomplete):
		respond.Error(c, http.StatusConflict, "incomplete_data", incomplete.Error(), nil)
	case errors.As(err, &unavailable):
		respond.Error(c, http.StatusServiceUnavailable, "analysis_unavailable", unavailable.Error(), gin.H{"attempts": unavailable.Attempts})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
	default:
		sessions.RespondError(c, err)
	}
}
