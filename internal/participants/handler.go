package participants

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tat-backend/internal/sessions"
	"tat-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the participant service. Registration also
// opens the participant's first experiment session.
type Handler struct {
	Svc      *Service
	Sessions *sessions.Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, sessionSvc *sessions.Service) *Handler {
	return &Handler{Svc: svc, Sessions: sessionSvc}
}

// RegisterRoutes attaches participant routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/participants", h.register)
	rg.GET("/participants/:code", h.getParticipant)
	rg.POST("/participants/:code/resume", h.resumeSession)
}

type registerRequest struct {
	Age            *int   `json:"age"`
	Gender         string `json:"gender"`
	EducationLevel string `json:"educationLevel"`
	Occupation     string `json:"occupation"`
	ContactInfo    string `json:"contactInfo"`
	ConsentGiven   bool   `json:"consentGiven"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	participant, err := h.Svc.Register(c.Request.Context(), RegisterInput{
		Age:            req.Age,
		Gender:         req.Gender,
		EducationLevel: req.EducationLevel,
		Occupation:     req.Occupation,
		ContactInfo:    req.ContactInfo,
		ConsentGiven:   req.ConsentGiven,
	})
	if err != nil {
		if errors.Is(err, ErrConsentRequired) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "informed consent is required to participate", gin.H{"field": "consentGiven"})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register participant", nil)
		return
	}
	c.Set("participantCode", participant.ParticipantCode)

	session, err := h.Sessions.CreateForParticipant(c.Request.Context(), participant.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create experiment session", nil)
		return
	}
	c.Set("sessionCode", session.SessionCode)

	respond.JSON(c, http.StatusCreated, gin.H{
		"participantCode": participant.ParticipantCode,
		"sessionCode":     session.SessionCode,
		"totalImageCount": session.TotalImageCount,
		"status":          session.Status,
	})
}

func (h *Handler) getParticipant(c *gin.Context) {
	code := c.Param("code")
	c.Set("participantCode", code)

	participant, err := h.Svc.GetByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "participant not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch participant", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"participantCode": participant.ParticipantCode,
		"age":             participant.Age,
		"gender":          participant.Gender,
		"educationLevel":  participant.EducationLevel,
		"occupation":      participant.Occupation,
		"consentGiven":    participant.ConsentGiven,
		"createdAt":       participant.CreatedAt,
	})
}

func (h *Handler) resumeSession(c *gin.Context) {
	code := c.Param("code")
	c.Set("participantCode", code)

	participant, err := h.Svc.GetByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "participant not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch participant", nil)
		return
	}

	session, err := h.Sessions.Resume(c.Request.Context(), participant.ID)
	if err != nil {
		sessions.RespondError(c, err)
		return
	}
	c.Set("sessionCode", session.SessionCode)

	respond.JSON(c, http.StatusOK, gin.H{
		"sessionCode":       session.SessionCode,
		"status":            session.Status,
		"currentImageIndex": session.CurrentImageIndex,
		"totalImageCount":   session.TotalImageCount,
	})
}
