package http

import (
	"net/http"

	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
)

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	status := &model.HealthStatus{
		Status:  "healthy",
		Service: "serialport",
		Version: types.Version,
	}

	writeJSON(w, r, http.StatusOK, status)
}
