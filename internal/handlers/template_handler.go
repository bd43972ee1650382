package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scicent/backend/internal/models"
	"github.com/scicent/backend/internal/services/task"
)

// TemplateHandler handles task template lifecycle requests
type TemplateHandler struct {
	templates *task.TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templates *task.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// CreateTemplate creates a draft template
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var input struct {
		OrganizationID uuid.UUID            `json:"organization_id" binding:"required"`
		Title          string               `json:"title" binding:"required"`
		Description    string               `json:"description"`
		XPReward       int64                `json:"xp_reward" binding:"required"`
		LevelRequired  int                  `json:"level_required"`
		Frequency      models.TaskFrequency `json:"frequency"`
		DeadlineDays   int                  `json:"deadline_days"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.templates.CreateTemplate(task.TemplateInput{
		OrganizationID: input.OrganizationID,
		Title:          input.Title,
		Description:    input.Description,
		XPReward:       input.XPReward,
		LevelRequired:  input.LevelRequired,
		Frequency:      input.Frequency,
		DeadlineDays:   input.DeadlineDays,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, template)
}

// PublishTemplate moves a draft template into the assignable catalogue
func (h *TemplateHandler) PublishTemplate(c *gin.Context) {
	h.transition(c, h.templates.Publish)
}

// ArchiveTemplate retires a published template
func (h *TemplateHandler) ArchiveTemplate(c *gin.Context) {
	h.transition(c, h.templates.Archive)
}

func (h *TemplateHandler) transition(c *gin.Context, fn func(uuid.UUID) (*models.TaskTemplate, error)) {
	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template ID"})
		return
	}

	template, err := fn(templateID)
	if err != nil {
		switch {
		case errors.Is(err, task.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		case errors.Is(err, task.ErrTemplateState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update template"})
		}
		return
	}

	c.JSON(http.StatusOK, template)
}

// ListTemplates returns the published catalogue for an organization
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	organizationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organization ID"})
		return
	}

	templates, err := h.templates.ListPublished(organizationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list templates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}
