package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"arctech/utils"
)

// StreamViewHandler pushes one server-sent "view" event per controller change
// until the client goes away.
func (h *AppointmentHandler) StreamViewHandler(c *gin.Context) {
	views := h.Controller.Watch(c.Request.Context())

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		v, ok := <-views
		if !ok {
			return false
		}
		c.SSEvent("view", v)
		return true
	})
}

// HealthHandler reports the last health-monitor snapshot.
func HealthHandler(monitor *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := monitor.Status()
		code := http.StatusOK
		state := "ok"
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(code, gin.H{"status": state, "checks": status})
	}
}
