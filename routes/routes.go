package routes

import (
	"arctech/handlers"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterViewRoutes registers the shared view-state endpoints.
func RegisterViewRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.PUT("/view/date", hb.SelectDateHandler)
		api.PUT("/view/mode", hb.SetViewModeHandler)
		api.PUT("/view/month", hb.ShiftMonthHandler)
		api.DELETE("/notice", hb.DismissNoticeHandler)
		api.POST("/reload", hb.ReloadHandler)
	}
}

// RegisterAppointmentRoutes registers appointment endpoints.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		api.GET("", hb.ListAppointmentsHandler)
		api.GET("/view", hb.GetViewHandler)
		api.GET("/stream", hb.StreamViewHandler)
		api.POST("", hb.CreateAppointmentHandler)
		api.DELETE("/:id", hb.DeleteAppointmentHandler)

		api.PUT("/form", hb.UpdateFormHandler)
		api.DELETE("/form", hb.ClearFormHandler)
	}
	r.GET("/api/durations", hb.DurationsHandler)
}

// RegisterCalendarRoutes registers the month grid endpoint.
func RegisterCalendarRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/calendar", hb.GetCalendarHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterViewRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
	RegisterCalendarRoutes(r, hb)
}
