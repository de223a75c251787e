package http

import (
	"net/http"

	"toolrental-backend/internal/domain"
)

func (h *Handler) filterInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.InventoryFilter{
		State:    q.Get("state"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Asc:      queryBool(r, "asc"),
		Desc:     queryBool(r, "desc"),
		Recent:   queryBool(r, "recent"),
	}
	var err error
	if f.ToolID, err = queryID(r, "tool_id"); err != nil {
		writeError(w, err)
		return
	}
	if f.MinPrice, err = queryInt(r, "min_price"); err != nil {
		writeError(w, err)
		return
	}
	if f.MaxPrice, err = queryInt(r, "max_price"); err != nil {
		writeError(w, err)
		return
	}

	records, err := h.svc.Inventory.Filter(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, records)
}

type toolInventory struct {
	ToolID  int32                    `json:"tool_id"`
	Total   int64                    `json:"total"`
	Records []domain.InventoryRecord `json:"records"`
}

func (h *Handler) inventoryByTool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.svc.Inventory.RecordsByTool(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := h.svc.Inventory.TotalStock(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, toolInventory{ToolID: id, Total: total, Records: records})
}

type addStockRequest struct {
	Quantity int32 `json:"quantity"`
}

func (h *Handler) addStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req addStockRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.svc.Inventory.AddStock(r.Context(), actorFrom(r.Context()).ID, id, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, rec)
}
