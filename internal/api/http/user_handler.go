package http

import (
	"net/http"

	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/service"
)

type registerRequest struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	LastName string          `json:"last_name"`
	Rut      string          `json:"rut"`
	Phone    string          `json:"phone"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
}

func (req registerRequest) registration() service.Registration {
	return service.Registration{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		LastName: req.LastName,
		Rut:      req.Rut,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
	}
}

// register is the public sign-up; it can only create clients.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.svc.Users.Register(r.Context(), nil, req.registration())
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, user)
}

func (h *Handler) registerByStaff(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor := actorFrom(r.Context())
	user, err := h.svc.Users.Register(r.Context(), &actor.ID, req.registration())
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	token, err := h.svc.Users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "Bearer"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, actorFrom(r.Context()))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Users.Delete(r.Context(), actorFrom(r.Context()).ID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.Users.ListClients(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, clients)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	staff, err := h.svc.Users.ListEmployees(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, staff)
}

type debtResponse struct {
	ClientID int32 `json:"client_id"`
	HasDebt  bool  `json:"has_debt"`
}

func (h *Handler) clientDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	debt, err := h.svc.Settlement.HasOutstandingDebt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, debtResponse{ClientID: id, HasDebt: debt})
}

// ownClientOnly refuses a client reading another client's records.
func ownClientOnly(actor *domain.User, clientID int32) error {
	if actor.Role == domain.UserRoleClient && actor.ID != clientID {
		return domain.PermissionDeniedf("clients can only read their own records")
	}
	return nil
}
