package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/audit"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	rateapp "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/application"
	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
)

const dateLayout = "2006-01-02"

// Handler provides rate schedule HTTP endpoints.
type Handler struct {
	service *rateapp.Service
	audit   audit.Logger
}

// NewHandler constructs a handler. The audit logger may be nil.
func NewHandler(service *rateapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("rates handler: nil service")
	}
	return &Handler{service: service, audit: auditLogger}, nil
}

// ServeHTTP handles /api/v1/milk-rates and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/milk-rates":
		switch r.Method {
		case http.MethodPost:
			h.handleUpsert(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case strings.HasPrefix(r.URL.Path, "/api/v1/milk-rates/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/milk-rates/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut, http.MethodPatch:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// sessionInput accepts either the canonical field or its legacy alias.
// The canonical field wins when both are present.
type sessionInput struct {
	Session *string `json:"deliverySession"`
	Shift   *string `json:"shift"`
}

func (in sessionInput) resolve() (rates.Session, bool, error) {
	raw := in.Session
	if raw == nil {
		raw = in.Shift
	}
	if raw == nil {
		return rates.SessionAny, false, nil
	}
	if *raw == "" {
		return rates.SessionAny, true, nil
	}
	session, ok := rates.NormalizeSession(*raw)
	if !ok {
		return "", false, errors.New("deliverySession must be morning or evening")
	}
	return session, true, nil
}

type upsertRequest struct {
	sessionInput
	MilkType      string `json:"milkType"`
	PricePerUnit  string `json:"pricePerUnit"`
	EffectiveFrom string `json:"effectiveFrom"`
	IsActive      *bool  `json:"isActive"`
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	milkType, ok := rates.NormalizeMilkType(req.MilkType)
	if !ok {
		http.Error(w, "milkType must be cow or buffalo", http.StatusBadRequest)
		return
	}
	session, present, err := req.resolve()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// An absent session defaults to morning. An explicit empty value keys
	// the session-less catch-all rate.
	if !present {
		session = rates.SessionMorning
	}
	price, err := decimal.NewFromString(req.PricePerUnit)
	if err != nil {
		http.Error(w, "pricePerUnit must be a decimal number", http.StatusBadRequest)
		return
	}
	effectiveFrom := time.Now()
	if req.EffectiveFrom != "" {
		effectiveFrom, err = time.Parse(dateLayout, req.EffectiveFrom)
		if err != nil {
			http.Error(w, "effectiveFrom must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	role := auth.RoleFromContext(r.Context())
	rate, err := h.service.Upsert(r.Context(), role, rateapp.UpsertInput{
		MilkType:      milkType,
		Session:       session,
		PricePerUnit:  price,
		EffectiveFrom: effectiveFrom,
		IsActive:      req.IsActive,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.auditLog(r, "rate.upsert", rate.ID)
	respondJSON(w, http.StatusCreated, rate)
}

type updateRequest struct {
	sessionInput
	MilkType      *string `json:"milkType"`
	PricePerUnit  *string `json:"pricePerUnit"`
	EffectiveFrom *string `json:"effectiveFrom"`
	IsActive      *bool   `json:"isActive"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var patch rateapp.UpdatePatch
	if req.MilkType != nil {
		milkType, ok := rates.NormalizeMilkType(*req.MilkType)
		if !ok {
			http.Error(w, "milkType must be cow or buffalo", http.StatusBadRequest)
			return
		}
		patch.MilkType = &milkType
	}
	session, present, err := req.resolve()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if present {
		patch.Session = &session
	}
	if req.PricePerUnit != nil {
		price, err := decimal.NewFromString(*req.PricePerUnit)
		if err != nil {
			http.Error(w, "pricePerUnit must be a decimal number", http.StatusBadRequest)
			return
		}
		patch.PricePerUnit = &price
	}
	if req.EffectiveFrom != nil {
		effectiveFrom, err := time.Parse(dateLayout, *req.EffectiveFrom)
		if err != nil {
			http.Error(w, "effectiveFrom must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		patch.EffectiveFrom = &effectiveFrom
	}
	patch.IsActive = req.IsActive

	role := auth.RoleFromContext(r.Context())
	rate, err := h.service.Update(r.Context(), role, id, patch)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.auditLog(r, "rate.update", rate.ID)
	respondJSON(w, http.StatusOK, rate)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	role := auth.RoleFromContext(r.Context())
	if err := h.service.Remove(r.Context(), role, id); err != nil {
		respondServiceError(w, err)
		return
	}
	h.auditLog(r, "rate.delete", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter rates.ListFilter

	if value := query.Get("milkType"); value != "" {
		milkType, ok := rates.NormalizeMilkType(value)
		if !ok {
			http.Error(w, "milkType must be cow or buffalo", http.StatusBadRequest)
			return
		}
		filter.MilkType = milkType
	}
	if session := pickSessionQuery(query.Get("deliverySession"), query.Get("shift")); session != nil {
		normalized, ok := rates.NormalizeSession(*session)
		if !ok {
			http.Error(w, "deliverySession must be morning or evening", http.StatusBadRequest)
			return
		}
		filter.Session = normalized
		filter.HasSession = true
	}
	if value := query.Get("asOf"); value != "" {
		asOf, err := time.Parse(dateLayout, value)
		if err != nil {
			http.Error(w, "asOf must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.AsOfDate = asOf
	}
	if value := query.Get("isActive"); value != "" {
		active, err := strconv.ParseBool(value)
		if err != nil {
			http.Error(w, "isActive must be a boolean", http.StatusBadRequest)
			return
		}
		filter.IsActive = &active
	}
	if value := query.Get("includeAnySession"); value != "" {
		include, err := strconv.ParseBool(value)
		if err != nil {
			http.Error(w, "includeAnySession must be a boolean", http.StatusBadRequest)
			return
		}
		filter.IncludeAnySession = include
	}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []rates.Rate{}
	}
	respondJSON(w, http.StatusOK, list)
}

func pickSessionQuery(canonical, alias string) *string {
	if canonical != "" {
		return &canonical
	}
	if alias != "" {
		return &alias
	}
	return nil
}

func (h *Handler) auditLog(r *http.Request, action, resourceID string) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "milk_rate",
		ResourceID:   resourceID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
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
	case errors.Is(err, rates.ErrConflict):
		var conflict *rates.ConflictError
		if errors.As(err, &conflict) && conflict.ConflictingRateID != "" {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "rate already exists for this key", http.StatusConflict)
	case errors.Is(err, rates.ErrRateNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, rates.ErrNotFound):
		http.Error(w, "rate not found", http.StatusNotFound)
	case errors.Is(err, rates.ErrNegativePrice):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
