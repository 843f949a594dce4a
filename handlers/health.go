package handlers

import (
	"net/http"

	"github.com/firsat-app/chat-server/pkg"
)

// Health godoc
// GET /api/health
// Load balancer ve uptime monitör'leri için basit liveness cevabı.
// Auth gerektirmez.
func Health(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
