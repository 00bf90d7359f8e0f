package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/audit"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	userapp "github.com/dshinde1318/Milk-Management-System-backend/internal/users/application"
	users "github.com/dshinde1318/Milk-Management-System-backend/internal/users/domain"
)

// Handler provides auth and user directory HTTP endpoints.
type Handler struct {
	service *userapp.Service
	audit   audit.Logger
}

// NewHandler constructs a handler. The audit logger may be nil.
func NewHandler(service *userapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("users handler: nil service")
	}
	return &Handler{service: service, audit: auditLogger}, nil
}

// ServeHTTP handles /api/v1/auth, /api/v1/users, and /api/v1/admin/buyers.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/auth/login":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleLogin(w, r)
	case path == "/api/v1/auth/me":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleMe(w, r)
	case path == "/api/v1/users":
		h.handleCollection(w, r, "")
	case strings.HasPrefix(path, "/api/v1/users/"):
		h.handleItem(w, r, strings.TrimPrefix(path, "/api/v1/users/"))
	case path == "/api/v1/admin/buyers":
		h.handleCollection(w, r, auth.RoleBuyer)
	case strings.HasPrefix(path, "/api/v1/admin/buyers/"):
		h.handleItem(w, r, strings.TrimPrefix(path, "/api/v1/admin/buyers/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type loginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Mobile == "" || req.Password == "" {
		http.Error(w, "mobile and password are required", http.StatusBadRequest)
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Mobile, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), auth.SubjectFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// handleCollection serves create and list. A non-empty forcedRole pins the
// scope, as on the admin buyer routes.
func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request, forcedRole auth.Role) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r, forcedRole)
	case http.MethodGet:
		h.handleList(w, r, forcedRole)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		id := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPut, http.MethodPatch:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "toggle-active":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleToggleActive(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type createRequest struct {
	Name          string `json:"name"`
	Mobile        string `json:"mobile"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Role          string `json:"role"`
	Password      string `json:"password"`
	OpeningAmount string `json:"openingAmount"`
	PendingAmount string `json:"pendingAmount"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request, forcedRole auth.Role) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	input := userapp.CreateInput{
		Name:     req.Name,
		Mobile:   req.Mobile,
		Email:    req.Email,
		Address:  req.Address,
		Password: req.Password,
	}
	if req.Role != "" {
		role, ok := auth.NormalizeRole(req.Role)
		if !ok {
			http.Error(w, "role must be admin, seller, or buyer", http.StatusBadRequest)
			return
		}
		input.Role = role
	}
	var err error
	if input.OpeningAmount, err = parseAmount(req.OpeningAmount); err != nil {
		http.Error(w, "openingAmount must be a decimal number", http.StatusBadRequest)
		return
	}
	if input.PendingAmount, err = parseAmount(req.PendingAmount); err != nil {
		http.Error(w, "pendingAmount must be a decimal number", http.StatusBadRequest)
		return
	}

	callerRole := auth.RoleFromContext(r.Context())
	var user *users.User
	if forcedRole == auth.RoleBuyer {
		user, err = h.service.CreateBuyer(r.Context(), callerRole, input)
	} else {
		user, err = h.service.Create(r.Context(), callerRole, input)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.auditLog(r, "user.create", user.ID)
	respondJSON(w, http.StatusCreated, user)
}

type updateRequest struct {
	Name          *string `json:"name"`
	Mobile        *string `json:"mobile"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	Password      *string `json:"password"`
	OpeningAmount *string `json:"openingAmount"`
	PendingAmount *string `json:"pendingAmount"`
	IsActive      *bool   `json:"isActive"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	patch := userapp.UpdatePatch{
		Name:     req.Name,
		Mobile:   req.Mobile,
		Email:    req.Email,
		Address:  req.Address,
		Password: req.Password,
		IsActive: req.IsActive,
	}
	if req.OpeningAmount != nil {
		amount, err := decimal.NewFromString(*req.OpeningAmount)
		if err != nil {
			http.Error(w, "openingAmount must be a decimal number", http.StatusBadRequest)
			return
		}
		patch.OpeningAmount = &amount
	}
	if req.PendingAmount != nil {
		amount, err := decimal.NewFromString(*req.PendingAmount)
		if err != nil {
			http.Error(w, "pendingAmount must be a decimal number", http.StatusBadRequest)
			return
		}
		patch.PendingAmount = &amount
	}

	user, err := h.service.Update(r.Context(), auth.RoleFromContext(r.Context()), id, patch)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.auditLog(r, "user.update", user.ID)
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) handleToggleActive(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.service.ToggleActive(r.Context(), auth.RoleFromContext(r.Context()), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.auditLog(r, "user.toggle_active", user.ID)
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Remove(r.Context(), auth.RoleFromContext(r.Context()), id); err != nil {
		respondServiceError(w, err)
		return
	}
	h.auditLog(r, "user.delete", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.service.Get(r.Context(), auth.RoleFromContext(r.Context()), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, forcedRole auth.Role) {
	query := r.URL.Query()
	filter := users.ListFilter{
		Role:   forcedRole,
		Search: query.Get("search"),
	}
	if forcedRole == "" {
		if value := query.Get("role"); value != "" {
			role, ok := auth.NormalizeRole(value)
			if !ok {
				http.Error(w, "role must be admin, seller, or buyer", http.StatusBadRequest)
				return
			}
			filter.Role = role
		}
	}
	if value := query.Get("isActive"); value != "" {
		active, err := strconv.ParseBool(value)
		if err != nil {
			http.Error(w, "isActive must be a boolean", http.StatusBadRequest)
			return
		}
		filter.IsActive = &active
	}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))

	list, err := h.service.List(r.Context(), auth.RoleFromContext(r.Context()), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []users.User{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) auditLog(r *http.Request, action, resourceID string) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "user",
		ResourceID:   resourceID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}

func parseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, users.ErrInvalidCredentials), errors.Is(err, users.ErrInactive):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, users.ErrMobileConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, users.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
