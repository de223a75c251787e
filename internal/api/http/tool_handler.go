package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/service"
)

type toolView struct {
	domain.Tool
	ImageURL  string `json:"image_url,omitempty"`
	Available *bool  `json:"available,omitempty"`
}

func (h *Handler) view(t domain.Tool) toolView {
	return toolView{Tool: t, ImageURL: h.uploads.URL(t.ImageRef)}
}

func (h *Handler) listTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.svc.Tools.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]toolView, 0, len(tools))
	for _, t := range tools {
		out = append(out, h.view(t))
	}
	respond(w, http.StatusOK, out)
}

func (h *Handler) getTool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tool, err := h.svc.Tools.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	available, err := h.svc.Inventory.IsAvailable(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	v := h.view(*tool)
	v.Available = &available
	respond(w, http.StatusOK, v)
}

// formInt32 reads an optional integer form field.
func formInt32(r *http.Request, key string) (*int32, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, domain.Validationf("invalid %s %q", key, raw)
	}
	v := int32(n)
	return &v, nil
}

// parseToolForm reads the multipart tool form and its optional "image" file.
// The returned cleanup closes the uploaded file.
func (h *Handler) parseToolForm(r *http.Request) (service.ToolChanges, *service.Upload, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(h.uploads.MaxBytes()); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return service.ToolChanges{}, nil, noop, domain.Validationf("invalid form: %v", err)
	}

	var changes service.ToolChanges
	if v := r.FormValue("name"); v != "" {
		changes.Name = &v
	}
	if v := r.FormValue("category"); v != "" {
		changes.Category = &v
	}
	var err error
	if changes.RepoCost, err = formInt32(r, "repo_cost"); err != nil {
		return changes, nil, noop, err
	}
	if changes.RentPrice, err = formInt32(r, "rent_price"); err != nil {
		return changes, nil, noop, err
	}
	if changes.LateFineDaily, err = formInt32(r, "late_fine_daily"); err != nil {
		return changes, nil, noop, err
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return changes, nil, noop, nil
	}
	upload := &service.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        file,
	}
	return changes, upload, func() { file.Close() }, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *Handler) createTool(w http.ResponseWriter, r *http.Request) {
	changes, image, cleanup, err := h.parseToolForm(r)
	defer cleanup()
	if err != nil {
		writeError(w, err)
		return
	}
	tool := &domain.Tool{
		Name:          deref(changes.Name),
		RepoCost:      deref(changes.RepoCost),
		RentPrice:     deref(changes.RentPrice),
		LateFineDaily: deref(changes.LateFineDaily),
	}
	created, err := h.svc.Tools.Create(r.Context(), actorFrom(r.Context()).ID, tool, deref(changes.Category), image)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, h.view(*created))
}

func (h *Handler) updateTool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	changes, image, cleanup, err := h.parseToolForm(r)
	defer cleanup()
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.svc.Tools.Update(r.Context(), actorFrom(r.Context()).ID, id, changes, image)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, h.view(*updated))
}

func (h *Handler) deleteTool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Tools.Delete(r.Context(), actorFrom(r.Context()).ID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stateRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (h *Handler) listStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.svc.States.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, states)
}

func (h *Handler) createState(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	state, err := h.svc.States.Create(r.Context(), actorFrom(r.Context()).ID, req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, state)
}

func (h *Handler) updateState(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req stateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	state, err := h.svc.States.Update(r.Context(), actorFrom(r.Context()).ID, id, req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, state)
}

func (h *Handler) deleteState(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.States.Delete(r.Context(), actorFrom(r.Context()).ID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
