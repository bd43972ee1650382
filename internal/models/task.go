package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TemplateStatus is the publication state of a task template.
type TemplateStatus string

const (
	TemplateStatusDraft     TemplateStatus = "draft"
	TemplateStatusPublished TemplateStatus = "published"
	TemplateStatusArchived  TemplateStatus = "archived"
)

// TaskFrequency describes how often a template may be picked up.
type TaskFrequency string

const (
	FrequencyOnce    TaskFrequency = "once"
	FrequencyDaily   TaskFrequency = "daily"
	FrequencyWeekly  TaskFrequency = "weekly"
	FrequencyMonthly TaskFrequency = "monthly"
)

// TaskTemplate is a unit of assignable work. Only published templates
// are assignable.
type TaskTemplate struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;index;not null" json:"organization_id"`
	Title          string         `gorm:"type:varchar(200);not null" json:"title"`
	Slug           string         `gorm:"type:varchar(220);uniqueIndex;not null" json:"slug"`
	Description    string         `gorm:"type:text" json:"description"`
	XPReward       int64          `gorm:"not null" json:"xp_reward"`
	LevelRequired  int            `gorm:"not null;default:1" json:"level_required"`
	Status         TemplateStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Frequency      TaskFrequency  `gorm:"type:varchar(20);not null;default:'once'" json:"frequency"`
	DeadlineDays   int            `gorm:"not null;default:7" json:"deadline_days"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// AssignmentStatus is the lifecycle state of a task assignment.
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusSubmitted AssignmentStatus = "submitted"
	AssignmentStatusApproved  AssignmentStatus = "approved"
	AssignmentStatusRejected  AssignmentStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentStatusApproved || s == AssignmentStatusRejected
}

// TaskAssignment is one instance of a volunteer performing a template.
// Exactly one terminal outcome (approved or rejected) per assignment.
type TaskAssignment struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	TemplateID  uuid.UUID        `gorm:"type:uuid;index;not null" json:"template_id"`
	Template    TaskTemplate     `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"-"`
	VolunteerID uuid.UUID        `gorm:"type:uuid;index;not null" json:"volunteer_id"`
	Volunteer   VolunteerProfile `gorm:"foreignKey:VolunteerID" json:"-"`
	Status      AssignmentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	AssignedAt  time.Time  `gorm:"not null" json:"assigned_at"`
	DueDate     time.Time  `gorm:"not null" json:"due_date"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewerID  *uuid.UUID `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	ReviewNotes string     `gorm:"type:text" json:"review_notes,omitempty"`

	// Submission contains whatever the volunteer turned in: notes,
	// hours, attachment references. Opaque to the engine.
	Submission JSON  `gorm:"type:jsonb" json:"submission,omitempty"`
	XPAwarded  int64 `gorm:"default:0" json:"xp_awarded"`

	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Overdue reports whether the assignment should be surfaced as overdue.
// Submitted work is never overdue, only work still pending past its due
// date.
func (a *TaskAssignment) Overdue(now time.Time) bool {
	return a.Status == AssignmentStatusPending && now.After(a.DueDate)
}
