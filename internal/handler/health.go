package handler

import (
	"io"
	"net/http"
)

// HandleRoot is the plain-text liveness message at GET /.
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Smart contract auditor API is running\n")
}

// HandleHealth serves GET /healthz for load balancers and compose checks.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
