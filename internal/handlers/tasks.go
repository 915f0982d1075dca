package handlers

import (
	"fmt"
	"net/http"

	"recoverydesk/internal/models"
	"recoverydesk/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const taskViewSelect = `t.*,
	f.debtor AS file_debtor,
	f.total_amount AS file_amount,
	ua.name AS assigned_to_name,
	uc.name AS created_by_name`

func (h *Handler) taskQuery(c *gin.Context) *gorm.DB {
	return h.db.WithContext(c.Request.Context()).
		Table("tasks t").
		Select(taskViewSelect).
		Joins("LEFT JOIN files f ON t.file_id = f.id").
		Joins("LEFT JOIN users ua ON t.assigned_to = ua.id").
		Joins("LEFT JOIN users uc ON t.created_by = uc.id")
}

// ListTasks returns tasks by due date, most urgent priority first on ties.
func (h *Handler) ListTasks(c *gin.Context) {
	query := h.taskQuery(c)
	if status := c.Query("status"); status != "" {
		query = query.Where("t.status = ?", status)
	}
	assignee, err := utils.ParseOptionalUintQuery(c, "assigned_to")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "invalid assigned_to", err)
		return
	}
	if assignee != nil {
		query = query.Where("t.assigned_to = ?", *assignee)
	}

	var tasks []models.TaskView
	err = query.
		Order("t.due_date ASC NULLS LAST").
		Order("CASE t.priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END").
		Scan(&tasks).Error
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching tasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

// MyTasks lists the caller's tasks, open work first.
func (h *Handler) MyTasks(c *gin.Context) {
	var tasks []models.TaskView
	err := h.taskQuery(c).
		Where("t.assigned_to = ?", h.principal(c).ID).
		Order("CASE t.status WHEN 'pending' THEN 1 WHEN 'in_progress' THEN 2 ELSE 3 END").
		Order("t.due_date ASC NULLS LAST").
		Scan(&tasks).Error
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching user tasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	dueDate, err := models.ParseOptionalDate(req.DueDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	reminderDays := models.DefaultTaskReminderDays
	if req.ReminderDays != nil {
		reminderDays = *req.ReminderDays
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	createdBy := h.principal(c).ID
	assignee := req.AssignedTo

	task := models.Task{
		Title:        req.Title,
		Description:  req.Description,
		FileID:       req.FileID,
		AssignedTo:   &assignee,
		Priority:     priority,
		Status:       models.TaskPending,
		DueDate:      dueDate,
		ReminderDays: &reminderDays,
		CreatedBy:    &createdBy,
	}
	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Create(&task).Error; err != nil {
		h.respondServiceError(c, "error creating task", err)
		return
	}

	if err := h.notifications.Notify(ctx, models.Notification{
		UserID:  assignee,
		Title:   "New task",
		Message: "You have been assigned a new task: " + task.Title,
		Link:    fmt.Sprintf("/tasks/%d", task.ID),
	}); err != nil {
		h.log.Warn("failed to notify task assignee", zap.Uint("task_id", task.ID), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"message": "task created successfully", "data": task})
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	dueDate, err := models.ParseOptionalDate(req.DueDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	result := h.db.WithContext(c.Request.Context()).Model(&models.Task{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":         req.Title,
		"description":   req.Description,
		"file_id":       req.FileID,
		"assigned_to":   req.AssignedTo,
		"priority":      req.Priority,
		"status":        req.Status,
		"due_date":      dueDate,
		"reminder_days": req.ReminderDays,
	})
	if result.Error != nil {
		h.respondServiceError(c, "error updating task", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.handleError(c, http.StatusNotFound, "task not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task updated successfully"})
}
