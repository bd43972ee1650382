package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scicent/backend/internal/models"
	"github.com/scicent/backend/internal/services/task"
)

// TaskHandler handles assignment lifecycle requests
type TaskHandler struct {
	assignments *task.AssignmentService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(assignments *task.AssignmentService) *TaskHandler {
	return &TaskHandler{assignments: assignments}
}

// AcceptTask creates a pending assignment for the authenticated
// volunteer against a published template.
func (h *TaskHandler) AcceptTask(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template ID"})
		return
	}

	assignment, err := h.assignments.Accept(profileID, templateID)
	if err != nil {
		switch {
		case errors.Is(err, task.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		case errors.Is(err, task.ErrTemplateUnavailable):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "template is not published"})
		case errors.Is(err, task.ErrNotEligible):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "level requirement not met"})
		case errors.Is(err, task.ErrAlreadyAssigned):
			c.JSON(http.StatusConflict, gin.H{"error": "an open assignment for this template already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept task"})
		}
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// SubmitTask attaches the volunteer's submission and moves the
// assignment to submitted.
func (h *TaskHandler) SubmitTask(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment ID"})
		return
	}

	assignment, err := h.assignments.GetAssignment(assignmentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
		return
	}
	if assignment.VolunteerID != profileID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	var input struct {
		Submission models.JSON `json:"submission"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.assignments.Submit(assignmentID, input.Submission); err != nil {
		switch {
		case errors.Is(err, task.ErrOverdue):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "assignment is past its due date"})
		case errors.Is(err, task.ErrNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "assignment is not pending"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit assignment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "submitted"})
}

// ReviewTask approves or rejects a submitted assignment. Approval
// awards XP and kicks off the commission pipeline.
func (h *TaskHandler) ReviewTask(c *gin.Context) {
	reviewerID, ok := profileIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment ID"})
		return
	}

	var input struct {
		Decision task.Decision `json:"decision" binding:"required"`
		Notes    string        `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.Decision.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be approve or reject"})
		return
	}

	result, err := h.assignments.Review(assignmentID, input.Decision, reviewerID, input.Notes)
	if err != nil {
		switch {
		case errors.Is(err, task.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
		case errors.Is(err, task.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "assignment was reviewed concurrently"})
		case errors.Is(err, task.ErrNotSubmitted):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "assignment is not submitted"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to review assignment"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAssignment returns one assignment. Volunteers see their own,
// admins see all.
func (h *TaskHandler) GetAssignment(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment ID"})
		return
	}

	assignment, err := h.assignments.GetAssignment(assignmentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
		return
	}

	isAdmin := c.GetBool("is_admin")
	if assignment.VolunteerID != profileID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// ListOverdue returns an organization's pending assignments past due.
func (h *TaskHandler) ListOverdue(c *gin.Context) {
	organizationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organization ID"})
		return
	}

	overdue, err := h.assignments.ListOverdue(organizationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list overdue assignments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignments": overdue, "count": len(overdue)})
}
