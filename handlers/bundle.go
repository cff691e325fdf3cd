// File: arctech/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	HealthHandler gin.HandlerFunc

	// View state endpoints
	GetViewHandler       gin.HandlerFunc
	SelectDateHandler    gin.HandlerFunc
	SetViewModeHandler   gin.HandlerFunc
	ShiftMonthHandler    gin.HandlerFunc
	DismissNoticeHandler gin.HandlerFunc
	ReloadHandler        gin.HandlerFunc
	StreamViewHandler    gin.HandlerFunc

	// Appointment endpoints
	ListAppointmentsHandler  gin.HandlerFunc
	CreateAppointmentHandler gin.HandlerFunc
	DeleteAppointmentHandler gin.HandlerFunc
	UpdateFormHandler        gin.HandlerFunc
	ClearFormHandler         gin.HandlerFunc
	DurationsHandler         gin.HandlerFunc

	// Calendar endpoints
	GetCalendarHandler gin.HandlerFunc
}

// NewHandlerBundle wires the appointment and calendar handlers.
func NewHandlerBundle(ah *AppointmentHandler, ch *CalendarHandler, health gin.HandlerFunc) *HandlerBundle {
	return &HandlerBundle{
		HealthHandler: health,

		GetViewHandler:       ah.GetViewHandler,
		SelectDateHandler:    ah.SelectDateHandler,
		SetViewModeHandler:   ah.SetViewModeHandler,
		ShiftMonthHandler:    ah.ShiftMonthHandler,
		DismissNoticeHandler: ah.DismissNoticeHandler,
		ReloadHandler:        ah.ReloadHandler,
		StreamViewHandler:    ah.StreamViewHandler,

		ListAppointmentsHandler:  ah.ListAppointmentsHandler,
		CreateAppointmentHandler: ah.CreateAppointmentHandler,
		DeleteAppointmentHandler: ah.DeleteAppointmentHandler,
		UpdateFormHandler:        ah.UpdateFormHandler,
		ClearFormHandler:         ah.ClearFormHandler,
		DurationsHandler:         ah.DurationsHandler,

		GetCalendarHandler: ch.GetCalendarHandler,
	}
}
