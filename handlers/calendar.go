package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"arctech/models"
	"arctech/services/appointment"
	"arctech/services/calendar"
	"arctech/utils"
)

// CalendarHandler serves month grids computed from the current snapshot.
type CalendarHandler struct {
	Controller *appointment.Controller
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(controller *appointment.Controller) *CalendarHandler {
	return &CalendarHandler{Controller: controller}
}

// GetCalendarHandler returns the 42-cell grid for ?month=YYYY-MM, marking
// ?selected=YYYY-MM-DD when given.
func (h *CalendarHandler) GetCalendarHandler(c *gin.Context) {
	loc := h.Controller.Location()
	now := h.Controller.Now()

	anchor := now
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.ParseInLocation(utils.MonthLayout, raw, loc)
		if err != nil {
			utils.AppErrorJSON(c, "Invalid month", models.NewInvalidDate(err, "month %q must be YYYY-MM", raw))
			return
		}
		anchor = parsed
	}

	var selected time.Time
	if raw := c.Query("selected"); raw != "" {
		parsed, err := time.ParseInLocation(utils.DayLayout, raw, loc)
		if err != nil {
			utils.AppErrorJSON(c, "Invalid date", models.NewInvalidDate(err, "selected %q must be YYYY-MM-DD", raw))
			return
		}
		selected = parsed
	}

	cells := calendar.ComputeMonthGrid(anchor, h.Controller.Appointments(), selected, calendar.GridOptions{
		WeekStart: h.Controller.WeekStart(),
		Now:       now,
	})
	c.JSON(http.StatusOK, gin.H{
		"month":     anchor.Format(utils.MonthLayout),
		"weekStart": h.Controller.WeekStart().String(),
		"cells":     cells,
	})
}
