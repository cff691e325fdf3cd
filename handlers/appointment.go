package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"arctech/models"
	"arctech/services/appointment"
	"arctech/services/calendar"
	"arctech/utils"
)

// AppointmentHandler exposes the appointment controller over HTTP.
type AppointmentHandler struct {
	Controller *appointment.Controller
	Logger     *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(controller *appointment.Controller, logger *zap.Logger) *AppointmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentHandler{Controller: controller, Logger: logger}
}

// GetViewHandler returns the full controller view.
func (h *AppointmentHandler) GetViewHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Controller.View())
}

// ListAppointmentsHandler filters the current snapshot by ?date and ?view
// without touching the controller's selection.
func (h *AppointmentHandler) ListAppointmentsHandler(c *gin.Context) {
	loc := h.Controller.Location()
	date := h.Controller.View().SelectedDate
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(utils.DayLayout, raw, loc)
		if err != nil {
			utils.AppErrorJSON(c, "Invalid date", models.NewInvalidDate(err, "date %q must be YYYY-MM-DD", raw))
			return
		}
		date = parsed
	}

	mode := models.ViewMonth
	if raw := c.Query("view"); raw != "" {
		parsed, ok := calendar.ParseViewMode(raw)
		if !ok {
			utils.AppErrorJSON(c, "Invalid view", models.NewValidationError("view %q must be month or day", raw))
			return
		}
		mode = parsed
	}

	c.JSON(http.StatusOK, gin.H{
		"date":         date.Format(utils.DayLayout),
		"view":         mode,
		"appointments": calendar.Filter(h.Controller.Appointments(), date, mode),
	})
}

// SelectDateHandler selects a day of the visible month and switches to Day view.
func (h *AppointmentHandler) SelectDateHandler(c *gin.Context) {
	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "message": err.Error()})
		return
	}
	date, err := utils.ParseDate(req.Date, h.Controller.Location())
	if err != nil {
		utils.AppErrorJSON(c, "Invalid date", err)
		return
	}
	if err := h.Controller.SelectDate(date); err != nil {
		utils.AppErrorJSON(c, "Cannot select date", err)
		return
	}
	c.JSON(http.StatusOK, h.Controller.View())
}

// SetViewModeHandler switches between month and day lists.
func (h *AppointmentHandler) SetViewModeHandler(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "message": err.Error()})
		return
	}
	mode, ok := calendar.ParseViewMode(req.Mode)
	if !ok {
		utils.AppErrorJSON(c, "Invalid view", models.NewValidationError("view %q must be month or day", req.Mode))
		return
	}
	if err := h.Controller.SetViewMode(mode); err != nil {
		utils.AppErrorJSON(c, "Invalid view", err)
		return
	}
	c.JSON(http.StatusOK, h.Controller.View())
}

// ShiftMonthHandler navigates the visible month by offset.
func (h *AppointmentHandler) ShiftMonthHandler(c *gin.Context) {
	var req struct {
		Offset int `json:"offset"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "message": err.Error()})
		return
	}
	h.Controller.ShiftMonth(req.Offset)
	c.JSON(http.StatusOK, h.Controller.View())
}

// UpdateFormHandler stores the pending draft.
func (h *AppointmentHandler) UpdateFormHandler(c *gin.Context) {
	var form appointment.FormState
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "message": err.Error()})
		return
	}
	h.Controller.UpdateForm(form)
	c.JSON(http.StatusOK, h.Controller.View())
}

// ClearFormHandler discards the pending draft.
func (h *AppointmentHandler) ClearFormHandler(c *gin.Context) {
	h.Controller.ClearForm()
	c.JSON(http.StatusOK, h.Controller.View())
}

// CreateAppointmentHandler creates the appointment in the request body, or
// submits the stored draft when the body is empty.
func (h *AppointmentHandler) CreateAppointmentHandler(c *gin.Context) {
	var (
		created models.Appointment
		err     error
	)
	if c.Request.ContentLength != 0 {
		var form appointment.FormState
		if bindErr := c.ShouldBindJSON(&form); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "message": bindErr.Error()})
			return
		}
		created, err = h.Controller.Submit(c.Request.Context(), form)
	} else {
		created, err = h.Controller.SubmitForm(c.Request.Context())
	}
	if err != nil {
		utils.AppErrorJSON(c, "Could not save appointment", err)
		return
	}
	h.Logger.Info("appointment submitted", zap.String("id", created.ID))
	c.JSON(http.StatusCreated, created)
}

// DeleteAppointmentHandler removes an appointment by id.
func (h *AppointmentHandler) DeleteAppointmentHandler(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := h.Controller.Delete(c.Request.Context(), id); err != nil {
		utils.AppErrorJSON(c, "Could not delete appointment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "appointment deleted", "id": id})
}

// DismissNoticeHandler clears the advisory notice.
func (h *AppointmentHandler) DismissNoticeHandler(c *gin.Context) {
	h.Controller.DismissNotice()
	c.JSON(http.StatusOK, h.Controller.View())
}

// ReloadHandler restarts the subscription after an error.
func (h *AppointmentHandler) ReloadHandler(c *gin.Context) {
	if err := h.Controller.Reload(); err != nil {
		utils.AppErrorJSON(c, "Could not reload appointments", err)
		return
	}
	c.JSON(http.StatusAccepted, h.Controller.View())
}

// DurationsHandler lists the durations the form accepts.
func (h *AppointmentHandler) DurationsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"durations": appointment.AllowedDurations(),
		"default":   models.DefaultDurationMinutes,
	})
}
