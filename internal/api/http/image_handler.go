package http

import (
	"io"
	"net/http"

	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/storage"

	"github.com/gorilla/mux"
)

// getImage streams a stored tool image.
func (h *Handler) getImage(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	file, err := h.svc.Tools.OpenImage(r.Context(), ref)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", storage.ContentType(ref))
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := io.Copy(w, file); err != nil {
		logger.Warn("Failed to stream image", "ref", ref, "error", err)
	}
}
