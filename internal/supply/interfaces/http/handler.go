package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	supplyapp "github.com/dshinde1318/Milk-Management-System-backend/internal/supply/application"
	supply "github.com/dshinde1318/Milk-Management-System-backend/internal/supply/domain"
)

const (
	routePrefix = "/api/v1/milk-supply"
	dateLayout  = "2006-01-02"
)

// Handler provides supply intake HTTP endpoints.
type Handler struct {
	service *supplyapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *supplyapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("supply handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles /api/v1/milk-supply and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case routePrefix:
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleQuery(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case routePrefix + "/sellers/summary":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleSellersSummary(w, r)
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
	session, ok := rates.NormalizeSession(*raw)
	if !ok {
		return "", false, errors.New("deliverySession must be morning or evening")
	}
	return session, true, nil
}

type createRequest struct {
	sessionInput
	SellerID string `json:"sellerId"`
	Date     string `json:"date"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	MilkType string `json:"milkType"`
	Remarks  string `json:"remarks"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.SellerID == "" {
		http.Error(w, "sellerId is required", http.StatusBadRequest)
		return
	}
	if req.Date == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		http.Error(w, "quantity must be a decimal number", http.StatusBadRequest)
		return
	}

	input := supplyapp.CreateInput{
		SellerID: req.SellerID,
		Date:     date,
		Quantity: quantity,
		Unit:     req.Unit,
		Remarks:  req.Remarks,
	}
	if req.MilkType != "" {
		milkType, ok := rates.NormalizeMilkType(req.MilkType)
		if !ok {
			http.Error(w, "milkType must be cow or buffalo", http.StatusBadRequest)
			return
		}
		input.MilkType = milkType
	}
	session, present, err := req.resolve()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if present {
		input.Session = session
	}

	entry, err := h.service.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := supply.Filter{SellerID: query.Get("sellerId")}

	var err error
	if value := query.Get("startDate"); value != "" {
		filter.From, err = time.Parse(dateLayout, value)
		if err != nil {
			http.Error(w, "startDate must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	if value := query.Get("endDate"); value != "" {
		filter.To, err = time.Parse(dateLayout, value)
		if err != nil {
			http.Error(w, "endDate must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))

	list, err := h.service.Query(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []supply.Entry{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleSellersSummary(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	var err error
	if value := r.URL.Query().Get("startDate"); value != "" {
		from, err = time.Parse(dateLayout, value)
		if err != nil {
			http.Error(w, "startDate must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	if value := r.URL.Query().Get("endDate"); value != "" {
		to, err = time.Parse(dateLayout, value)
		if err != nil {
			http.Error(w, "endDate must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	rows, err := h.service.SellersSummary(r.Context(), from, to)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []supply.SellerSummary{}
	}
	respondJSON(w, http.StatusOK, rows)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, supply.ErrSellerNotFound):
		http.Error(w, "Seller not found", http.StatusNotFound)
	case errors.Is(err, supply.ErrInvalidQuantity):
		http.Error(w, "quantity must be greater than 0", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
