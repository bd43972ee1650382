package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/scicent/backend/internal/models"
	"github.com/scicent/backend/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrTemplateState signals a publish/archive call against a
	// template that is not in the required state.
	ErrTemplateState = errors.New("template is not in a state that allows this transition")
)

// TemplateService owns the draft → published → archived lifecycle of
// task templates. Archiving never touches existing assignments; work
// already accepted runs to completion.
type TemplateService struct {
	db *gorm.DB
}

// NewTemplateService creates a new template service
func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{db: db}
}

// TemplateInput carries the fields a coordinator sets on a template.
type TemplateInput struct {
	OrganizationID uuid.UUID
	Title          string
	Description    string
	XPReward       int64
	LevelRequired  int
	Frequency      models.TaskFrequency
	DeadlineDays   int
}

// CreateTemplate creates a new draft template.
func (s *TemplateService) CreateTemplate(input TemplateInput) (*models.TaskTemplate, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.New("template title is required")
	}
	if input.XPReward <= 0 {
		return nil, errors.New("xp reward must be positive")
	}
	if input.LevelRequired < 1 {
		input.LevelRequired = 1
	}
	if input.DeadlineDays < 1 {
		input.DeadlineDays = 7
	}
	if input.Frequency == "" {
		input.Frequency = models.FrequencyOnce
	}

	template := models.TaskTemplate{
		OrganizationID: input.OrganizationID,
		Title:          input.Title,
		Slug:           generateTemplateSlug(input.Title),
		Description:    input.Description,
		XPReward:       input.XPReward,
		LevelRequired:  input.LevelRequired,
		Status:         models.TemplateStatusDraft,
		Frequency:      input.Frequency,
		DeadlineDays:   input.DeadlineDays,
	}

	if err := s.db.Create(&template).Error; err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return &template, nil
}

// Publish moves a draft template to published. Only published
// templates are assignable.
func (s *TemplateService) Publish(templateID uuid.UUID) (*models.TaskTemplate, error) {
	return s.transition(templateID, models.TemplateStatusDraft, models.TemplateStatusPublished)
}

// Archive retires a published template from the catalogue.
func (s *TemplateService) Archive(templateID uuid.UUID) (*models.TaskTemplate, error) {
	return s.transition(templateID, models.TemplateStatusPublished, models.TemplateStatusArchived)
}

// transition flips status conditionally so two concurrent calls cannot
// both succeed.
func (s *TemplateService) transition(templateID uuid.UUID, from, to models.TemplateStatus) (*models.TaskTemplate, error) {
	result := s.db.Model(&models.TaskTemplate{}).
		Where("id = ? AND status = ?", templateID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var template models.TaskTemplate
		if err := s.db.First(&template, "id = ?", templateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		return nil, fmt.Errorf("%w: template is %s", ErrTemplateState, template.Status)
	}

	var template models.TaskTemplate
	if err := s.db.First(&template, "id = ?", templateID).Error; err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &template, nil
}

// GetTemplate retrieves a template by ID
func (s *TemplateService) GetTemplate(templateID uuid.UUID) (*models.TaskTemplate, error) {
	var template models.TaskTemplate
	if err := s.db.First(&template, "id = ?", templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &template, nil
}

// ListPublished returns the assignable catalogue for an organization.
func (s *TemplateService) ListPublished(organizationID uuid.UUID) ([]models.TaskTemplate, error) {
	var templates []models.TaskTemplate
	err := s.db.
		Where("organization_id = ? AND status = ?", organizationID, models.TemplateStatusPublished).
		Order("created_at DESC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// generateTemplateSlug derives a unique slug from the title.
func generateTemplateSlug(title string) string {
	base := slug.Make(title)
	if len(base) > 200 {
		base = base[:200]
	}
	return base + "-" + strings.ToLower(utils.RandomString(6))
}
