package http

import (
	"net/http"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/service"
)

type openLoanRequest struct {
	ClientID   int32   `json:"client_id"`
	InitDate   Date    `json:"init_date"`
	ReturnDate Date    `json:"return_date"`
	ToolIDs    []int32 `json:"tool_ids"`
}

type loanResponse struct {
	Loan  *domain.Loan      `json:"loan"`
	Items []domain.LineItem `json:"items,omitempty"`
}

// openLoan opens a bare loan when tool_ids is absent, otherwise a loan with
// one line item per tool in a single transaction.
func (h *Handler) openLoan(w http.ResponseWriter, r *http.Request) {
	var req openLoanRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	actorID := actorFrom(r.Context()).ID
	initDate, returnDate := req.InitDate.in(h.loc), req.ReturnDate.in(h.loc)

	if req.ToolIDs == nil {
		loan, err := h.svc.Loans.Open(r.Context(), actorID, req.ClientID, initDate, returnDate)
		if err != nil {
			writeError(w, err)
			return
		}
		respond(w, http.StatusCreated, loanResponse{Loan: loan})
		return
	}

	loan, items, err := h.svc.Loans.OpenWithLineItems(r.Context(), actorID, req.ClientID, initDate, returnDate, req.ToolIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, loanResponse{Loan: loan, Items: items})
}

func (h *Handler) filterLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.svc.Loans.Filter(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, loans)
}

func (h *Handler) overdueLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.svc.Loans.Overdue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, loans)
}

type loanDetail struct {
	*domain.Loan
	TotalDebt int64 `json:"total_debt"`
	TotalFine int64 `json:"total_fine"`
}

// ownLoan loads the loan named in the path, hiding other clients' loans from clients.
func (h *Handler) ownLoan(r *http.Request) (*domain.Loan, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	loan, err := h.svc.Loans.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := ownClientOnly(actorFrom(r.Context()), loan.ClientID); err != nil {
		return nil, err
	}
	return loan, nil
}

func (h *Handler) getLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.ownLoan(r)
	if err != nil {
		writeError(w, err)
		return
	}
	debt, err := h.svc.Loans.TotalDebt(r.Context(), loan.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	fine, err := h.svc.Loans.TotalFine(r.Context(), loan.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, loanDetail{Loan: loan, TotalDebt: debt, TotalFine: fine})
}

func (h *Handler) loansByClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := ownClientOnly(actorFrom(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	loans, err := h.svc.Loans.ListByClient(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, loans)
}

func (h *Handler) closeLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	loan, err := h.svc.Loans.Close(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, loan)
}

func (h *Handler) deleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.svc.Loans.Delete(r.Context(), id) {
		writeStatus(w, http.StatusConflict, "LOAN_NOT_DELETED", "loan could not be deleted")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loanItems(w http.ResponseWriter, r *http.Request) {
	loan, err := h.ownLoan(r)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.svc.Items.ListByLoan(r.Context(), loan.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

func (h *Handler) itemsByClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := ownClientOnly(actorFrom(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	items, err := h.svc.Items.ListByClient(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

type batchItem struct {
	LineItemID int32            `json:"line_item_id"`
	Item       *domain.LineItem `json:"item,omitempty"`
	Skipped    bool             `json:"skipped,omitempty"`
	Error      *errorBody       `json:"error,omitempty"`
}

type batchResponse struct {
	Loan    *domain.Loan `json:"loan,omitempty"`
	Results []batchItem  `json:"results"`
	Error   *errorBody   `json:"error,omitempty"`
}

func errorBodyOf(err error) *errorBody {
	if err == nil {
		return nil
	}
	var code string
	if de, ok := asDomain(err); ok {
		code = de.Code
	}
	return &errorBody{Code: code, Message: err.Error()}
}

func batchItems(results []service.BatchResult) []batchItem {
	out := make([]batchItem, 0, len(results))
	for _, res := range results {
		out = append(out, batchItem{
			LineItemID: res.LineItemID,
			Item:       res.Item,
			Skipped:    res.Skipped,
			Error:      errorBodyOf(res.Err),
		})
	}
	return out
}

// writeBatch reports per-item outcomes. Items committed before a failure stay
// committed, so a partial failure still carries the results.
func writeBatch(w http.ResponseWriter, loan *domain.Loan, results []service.BatchResult, err error) {
	if err != nil && len(results) == 0 {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusMultiStatus
	}
	respond(w, status, batchResponse{Loan: loan, Results: batchItems(results), Error: errorBodyOf(err)})
}

type receiveAllRequest struct {
	// Damages maps line item ids to damage labels.
	Damages map[string]string `json:"damages"`
}

func (h *Handler) receiveAll(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req receiveAllRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	damages := make(map[int32]string, len(req.Damages))
	for key, label := range req.Damages {
		itemID, err := parseID(key)
		if err != nil {
			writeError(w, err)
			return
		}
		damages[itemID] = label
	}

	loan, results, err := h.svc.Items.ReceiveBatch(r.Context(), actorFrom(r.Context()).ID, id, damages)
	writeBatch(w, loan, results, err)
}

type paidResponse struct {
	LoanID int32 `json:"loan_id"`
	Paid   bool  `json:"paid"`
}

func (h *Handler) payDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	paid, err := h.svc.Settlement.PayDebt(r.Context(), actorFrom(r.Context()).ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, paidResponse{LoanID: id, Paid: paid})
}

type payRepairRequest struct {
	Cost int32 `json:"cost"`
}

func (h *Handler) payRepair(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req payRepairRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	paid, err := h.svc.Settlement.PayRepair(r.Context(), actorFrom(r.Context()).ID, id, req.Cost)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, paidResponse{LoanID: id, Paid: paid})
}

func (h *Handler) repairItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.svc.Settlement.ItemsNeedingRepair(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

type createItemRequest struct {
	ToolID int32 `json:"tool_id"`
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req createItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	item, err := h.svc.Items.Create(r.Context(), actorFrom(r.Context()).ID, id, req.ToolID)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, item)
}

func (h *Handler) deliverItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	item, err := h.svc.Items.Deliver(r.Context(), actorFrom(r.Context()).ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

type deliverBatchRequest struct {
	ItemIDs []int32 `json:"item_ids"`
}

func (h *Handler) deliverBatch(w http.ResponseWriter, r *http.Request) {
	var req deliverBatchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	results, err := h.svc.Items.DeliverBatch(r.Context(), actorFrom(r.Context()).ID, req.ItemIDs)
	writeBatch(w, nil, results, err)
}

type receiveItemRequest struct {
	Damage string `json:"damage"`
}

func (h *Handler) receiveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req receiveItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	item, err := h.svc.Items.Receive(r.Context(), actorFrom(r.Context()).ID, id, req.Damage)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Items.Delete(r.Context(), actorFrom(r.Context()).ID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
