package http

import (
	"net/http"

	"toolrental-backend/internal/domain"
)

// filterKardex serves both the filtered search and the plain date range.
func (h *Handler) filterKardex(w http.ResponseWriter, r *http.Request) {
	f := domain.KardexFilter{Type: r.URL.Query().Get("type")}
	var err error
	if f.ToolID, err = queryID(r, "tool_id"); err != nil {
		writeError(w, err)
		return
	}
	if f.ClientID, err = queryID(r, "client_id"); err != nil {
		writeError(w, err)
		return
	}
	if f.EmployeeID, err = queryID(r, "employee_id"); err != nil {
		writeError(w, err)
		return
	}
	if f.From, err = h.queryDate(r, "from"); err != nil {
		writeError(w, err)
		return
	}
	if f.To, err = h.queryDate(r, "to"); err != nil {
		writeError(w, err)
		return
	}

	var entries []domain.KardexEntry
	if f.From != nil && f.To != nil && f.ToolID == nil && f.ClientID == nil && f.EmployeeID == nil && f.Type == "" {
		entries, err = h.svc.Kardex.Between(r.Context(), *f.From, *f.To)
	} else {
		entries, err = h.svc.Kardex.Filter(r.Context(), f)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, entries)
}

func (h *Handler) getKardex(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.svc.Kardex.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, entry)
}

func (h *Handler) ranking(w http.ResponseWriter, r *http.Request) {
	start, err := h.queryDate(r, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := h.queryDate(r, "end")
	if err != nil {
		writeError(w, err)
		return
	}
	ranking, err := h.svc.Kardex.Ranking(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, ranking)
}
