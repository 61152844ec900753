package reports

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tat-backend/internal/analyses"
	"tat-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the report service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sessions/:code/report", h.getReport)
	rg.GET("/stats", h.getStats)
}

func (h *Handler) getReport(c *gin.Context) {
	code := c.Param("code")
	c.Set("sessionCode", code)

	report, err := h.Svc.Assemble(c.Request.Context(), code)
	if err != nil {
		analyses.RespondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, reportPayload(report))
}

func (h *Handler) getStats(c *gin.Context) {
	stats, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		analyses.RespondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"participants":     stats.Participants,
		"sessionsByStatus": stats.SessionsByStatus,
		"responses":        stats.Responses,
		"analyses":         stats.Analyses,
	})
}

func reportPayload(report Report) gin.H {
	responses := make([]gin.H, 0, len(report.Responses))
	for _, response := range report.Responses {
		responses = append(responses, gin.H{
			"responseId":   response.ID,
			"imageIndex":   response.ImageIndex,
			"imageFile":    response.ImageFile,
			"storyText":    response.StoryText,
			"wordCount":    response.WordCount,
			"responseTime": response.ResponseTime,
			"createdAt":    response.CreatedAt,
		})
	}

	analysisList := make([]gin.H, 0, len(report.Analyses))
	for _, analysis := range report.Analyses {
		analysisList = append(analysisList, analysisSummary(analysis))
	}
	latest := gin.H{}
	for typ, analysis := range report.Latest {
		latest[typ] = analysisSummary(analysis)
	}

	participant := report.Participant
	session := report.Session
	return gin.H{
		"participant": gin.H{
			"participantCode": participant.ParticipantCode,
			"age":             participant.Age,
			"gender":          participant.Gender,
			"educationLevel":  participant.EducationLevel,
			"occupation":      participant.Occupation,
			"createdAt":       participant.CreatedAt,
		},
		"session": gin.H{
			"sessionCode":       session.SessionCode,
			"status":            session.Status,
			"startTime":         session.StartTime,
			"endTime":           session.EndTime,
			"totalDuration":     session.TotalDuration,
			"currentImageIndex": session.CurrentImageIndex,
			"totalImageCount":   session.TotalImageCount,
		},
		"responses":      responses,
		"analyses":       analysisList,
		"latestAnalyses": latest,
		"stats": gin.H{
			"totalResponses":    report.Stats.TotalResponses,
			"totalWordCount":    report.Stats.TotalWordCount,
			"averageWordCount":  report.Stats.AverageWordCount,
			"totalDuration":     report.Stats.TotalDuration,
			"completionPercent": report.Stats.CompletionPct,
		},
	}
}

func analysisSummary(analysis analyses.Analysis) gin.H {
	return gin.H{
		"analysisId":        analysis.ID,
		"type":              analysis.Type,
		"responseId":        analysis.ResponseID,
		"themes":            analysis.Themes,
		"personalityTraits": analysis.PersonalityTraits,
		"emotionalPatterns": analysis.EmotionalPatterns,
		"recommendations":   analysis.Recommendations,
		"confidence":        analysis.Confidence,
		"degraded":          analysis.Degraded,
		"createdAt":         analysis.CreatedAt,
	}
}
