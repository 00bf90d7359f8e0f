package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/audit"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	billingapp "github.com/dshinde1318/Milk-Management-System-backend/internal/billing/application"
	billing "github.com/dshinde1318/Milk-Management-System-backend/internal/billing/domain"
	billingexport "github.com/dshinde1318/Milk-Management-System-backend/internal/billing/interfaces"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/observability/metrics"
	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	txapp "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/application"
	transactions "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/domain"
)

const (
	routePrefix = "/api/v1/milk-transactions"
	dateLayout  = "2006-01-02"
)

// Handler provides delivery ledger and billing HTTP endpoints.
type Handler struct {
	ledger  *txapp.Service
	billing *billingapp.Service
	audit   audit.Logger
}

// NewHandler constructs a handler. The audit logger may be nil.
func NewHandler(ledger *txapp.Service, billingService *billingapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if ledger == nil {
		return nil, errors.New("transactions handler: nil ledger service")
	}
	if billingService == nil {
		return nil, errors.New("transactions handler: nil billing service")
	}
	return &Handler{ledger: ledger, billing: billingService, audit: auditLogger}, nil
}

// ServeHTTP handles /api/v1/milk-transactions and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == routePrefix:
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleQuery(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case path == routePrefix+"/sellers/stats":
		h.handleAllSellersStats(w, r)
		return
	case strings.HasPrefix(path, routePrefix+"/seller/"):
		h.handlePartyStats(w, r, strings.TrimPrefix(path, routePrefix+"/seller/"), true)
		return
	case strings.HasPrefix(path, routePrefix+"/buyer/"):
		h.handleBuyerRoute(w, r, strings.TrimPrefix(path, routePrefix+"/buyer/"))
		return
	case strings.HasPrefix(path, routePrefix+"/"):
		id := strings.TrimPrefix(path, routePrefix+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
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
	session, ok := rates.NormalizeSession(*raw)
	if !ok {
		return "", false, errors.New("deliverySession must be morning or evening")
	}
	return session, true, nil
}

type createRequest struct {
	sessionInput
	BuyerID  string `json:"buyerId"`
	Date     string `json:"date"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Status   string `json:"status"`
	MilkType string `json:"milkType"`
	Remarks  string `json:"remarks"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.BuyerID == "" {
		http.Error(w, "buyerId is required", http.StatusBadRequest)
		return
	}

	input := txapp.CreateInput{BuyerID: req.BuyerID, Unit: req.Unit, Remarks: req.Remarks}

	if req.Quantity != "" {
		quantity, err := decimal.NewFromString(req.Quantity)
		if err != nil {
			http.Error(w, "quantity must be a decimal number", http.StatusBadRequest)
			return
		}
		input.Quantity = quantity
	}
	if req.Date != "" {
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		input.Date = date
	}
	if req.Status != "" {
		status, ok := transactions.NormalizeStatus(req.Status)
		if !ok {
			http.Error(w, "status must be pending, delivered, or cancelled", http.StatusBadRequest)
			return
		}
		input.Status = status
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

	sellerID := auth.SubjectFromContext(r.Context())
	tx, err := h.ledger.Create(r.Context(), sellerID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

type updateRequest struct {
	sessionInput
	Date     *string `json:"date"`
	Quantity *string `json:"quantity"`
	Unit     *string `json:"unit"`
	Status   *string `json:"status"`
	MilkType *string `json:"milkType"`
	Remarks  *string `json:"remarks"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var patch txapp.UpdatePatch
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		patch.Date = &date
	}
	if req.Quantity != nil {
		quantity, err := decimal.NewFromString(*req.Quantity)
		if err != nil {
			http.Error(w, "quantity must be a decimal number", http.StatusBadRequest)
			return
		}
		patch.Quantity = &quantity
	}
	if req.Status != nil {
		status, ok := transactions.NormalizeStatus(*req.Status)
		if !ok {
			http.Error(w, "status must be pending, delivered, or cancelled", http.StatusBadRequest)
			return
		}
		patch.Status = &status
	}
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
	patch.Unit = req.Unit
	patch.Remarks = req.Remarks

	tx, err := h.ledger.Update(r.Context(), id, patch)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	tx, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.ledger.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Non-admin callers see their own side of the ledger only.
	role := auth.RoleFromContext(r.Context())
	subject := auth.SubjectFromContext(r.Context())
	switch role {
	case auth.RoleSeller:
		filter.SellerID = subject
	case auth.RoleBuyer:
		filter.BuyerID = subject
	}

	list, err := h.ledger.Query(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []transactions.Transaction{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) handlePartyStats(w http.ResponseWriter, r *http.Request, rest string, seller bool) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "stats" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := parts[0]

	from, to, err := rangeFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var stats *transactions.Stats
	if seller {
		stats, err = h.ledger.StatsForSeller(r.Context(), id, from, to)
	} else {
		stats, err = h.ledger.StatsForBuyer(r.Context(), id, from, to)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleAllSellersStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	from, to, err := rangeFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// No status param means every status counts; deliveredCount still carries
	// the delivered tally per row.
	var status transactions.Status
	if value := r.URL.Query().Get("status"); value != "" {
		normalized, ok := transactions.NormalizeStatus(value)
		if !ok {
			http.Error(w, "status must be pending, delivered, or cancelled", http.StatusBadRequest)
			return
		}
		status = normalized
	}

	rows, err := h.ledger.AllSellersStats(r.Context(), from, to, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []transactions.SellerStatsRow{}
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleBuyerRoute(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 2 && parts[1] == "stats":
		h.handlePartyStats(w, r, rest, false)
	case len(parts) == 2 && parts[1] == "billing":
		h.handleBilling(w, r, parts[0], "")
	case len(parts) == 3 && parts[1] == "billing":
		h.handleBilling(w, r, parts[0], parts[2])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleBilling(w http.ResponseWriter, r *http.Request, buyerID, export string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if buyerID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	input := billing.PeriodInput{Month: r.URL.Query().Get("month")}
	var err error
	if value := r.URL.Query().Get("startDate"); value != "" {
		input.From, err = time.Parse(dateLayout, value)
		if err != nil {
			http.Error(w, "startDate must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	if value := r.URL.Query().Get("endDate"); value != "" {
		input.To, err = time.Parse(dateLayout, value)
		if err != nil {
			http.Error(w, "endDate must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	role := auth.RoleFromContext(r.Context())
	stmt, err := h.billing.Statement(r.Context(), role, buyerID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	switch export {
	case "":
		respondJSON(w, http.StatusOK, stmt)
	case "export.xlsx":
		body, err := billingexport.BuildStatementXLSX(stmt)
		if err != nil {
			metrics.ObserveStatementExport("xlsx", metrics.ResultError)
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}
		metrics.ObserveStatementExport("xlsx", metrics.ResultSuccess)
		h.auditExport(r, buyerID, stmt.Period.Month, "xlsx")
		serveAttachment(w, body, statementFilename(buyerID, stmt.Period.Month, "xlsx"),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	case "export.pdf":
		body, err := billingexport.BuildStatementPDF(stmt)
		if err != nil {
			metrics.ObserveStatementExport("pdf", metrics.ResultError)
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}
		metrics.ObserveStatementExport("pdf", metrics.ResultSuccess)
		h.auditExport(r, buyerID, stmt.Period.Month, "pdf")
		serveAttachment(w, body, statementFilename(buyerID, stmt.Period.Month, "pdf"), "application/pdf")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) auditExport(r *http.Request, buyerID, month, format string) {
	if h.audit == nil {
		return
	}
	metadata, _ := json.Marshal(map[string]string{"month": month, "format": format})
	_ = h.audit.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "statement.export",
		ResourceType: "billing_statement",
		ResourceID:   buyerID,
		Metadata:     metadata,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}

func statementFilename(buyerID, month, ext string) string {
	return fmt.Sprintf("statement-%s-%s.%s", buyerID, month, ext)
}

func serveAttachment(w http.ResponseWriter, body []byte, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func filterFromQuery(r *http.Request) (transactions.Filter, error) {
	var filter transactions.Filter
	query := r.URL.Query()
	filter.SellerID = query.Get("sellerId")
	filter.BuyerID = query.Get("buyerId")
	if value := query.Get("status"); value != "" {
		status, ok := transactions.NormalizeStatus(value)
		if !ok {
			return filter, errors.New("status must be pending, delivered, or cancelled")
		}
		filter.Status = status
	}
	var err error
	filter.From, filter.To, err = rangeFromQuery(r)
	return filter, err
}

func rangeFromQuery(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if value := r.URL.Query().Get("startDate"); value != "" {
		from, err = time.Parse(dateLayout, value)
		if err != nil {
			return from, to, errors.New("startDate must be YYYY-MM-DD")
		}
	}
	if value := r.URL.Query().Get("endDate"); value != "" {
		to, err = time.Parse(dateLayout, value)
		if err != nil {
			return from, to, errors.New("endDate must be YYYY-MM-DD")
		}
	}
	return from, to, nil
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
	case errors.Is(err, transactions.ErrInvalidQuantity):
		http.Error(w, "quantity must be greater than 0 for delivered entries", http.StatusBadRequest)
	case errors.Is(err, billing.ErrInvalidPeriod):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, transactions.ErrSellerNotFound):
		http.Error(w, "Seller not found", http.StatusNotFound)
	case errors.Is(err, transactions.ErrBuyerNotFound):
		http.Error(w, "Buyer not found", http.StatusNotFound)
	case errors.Is(err, transactions.ErrNotFound):
		http.Error(w, "transaction not found", http.StatusNotFound)
	case errors.Is(err, rates.ErrRateNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
