package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"saletrack.org/internal/audit"
	"saletrack.org/internal/auth"
	"saletrack.org/internal/sales"
)

type saleRequest struct {
	ProductID      string   `json:"product_id"`
	RequestedLimit float64  `json:"requested_limit"`
	FranchiseID    *string  `json:"franchise_id"`
	Rate           *float64 `json:"rate"`
}

type statusChangeRequest struct {
	StatusID string `json:"status_id"`
	Comment  string `json:"comment"`
}

type listSalesResponse struct {
	Sales               []sales.Record `json:"sales"`
	TotalRequestedLimit float64        `json:"total_requested_limit"`
}

func (in saleRequest) toInput() sales.RecordInput {
	return sales.RecordInput{
		ProductID:      strings.TrimSpace(in.ProductID),
		RequestedLimit: in.RequestedLimit,
		FranchiseID:    in.FranchiseID,
		Rate:           in.Rate,
	}
}

func (a *API) handleSalesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listSales(w, r)
	case http.MethodPost:
		a.createSale(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleSaleResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/sales/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		a.handleSale(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "status":
		a.changeSaleStatus(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "history":
		a.getSaleHistory(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleSale(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		a.getSale(w, r, id)
	case http.MethodPut:
		a.updateSale(w, r, id)
	case http.MethodDelete:
		a.deleteSale(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listSales(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	records, total, err := a.sales.List(r.Context(), claims)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []sales.Record{}
	}
	writeJSON(w, http.StatusOK, listSalesResponse{
		Sales:               records,
		TotalRequestedLimit: total,
	})
}

func (a *API) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	rec, err := a.sales.Create(r.Context(), claims, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "sales.record.create", map[string]any{
		"sale_id":         rec.ID,
		"product_id":      rec.ProductID,
		"requested_limit": strconv.FormatFloat(rec.RequestedLimit, 'f', 2, 64),
	})

	w.Header().Set("Location", "/v1/sales/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) getSale(w http.ResponseWriter, r *http.Request, id string) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	rec, err := a.sales.Get(r.Context(), claims, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) updateSale(w http.ResponseWriter, r *http.Request, id string) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	rec, err := a.sales.Update(r.Context(), claims, id, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "sales.record.update", map[string]any{
		"sale_id":    rec.ID,
		"product_id": rec.ProductID,
	})

	writeJSON(w, http.StatusOK, rec)
}

func (a *API) deleteSale(w http.ResponseWriter, r *http.Request, id string) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := a.sales.Delete(r.Context(), claims, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "sales.record.delete", map[string]any{
		"sale_id": id,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) changeSaleStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}

	var req statusChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	input := sales.StatusChangeInput{
		StatusID: strings.TrimSpace(req.StatusID),
		Comment:  strings.TrimSpace(req.Comment),
	}
	if err := a.sales.ChangeStatus(r.Context(), claims, id, input); err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "sales.record.status_change", map[string]any{
		"sale_id":   id,
		"status_id": input.StatusID,
	})

	rec, err := a.sales.Get(r.Context(), claims, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) getSaleHistory(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	entries, err := a.sales.History(r.Context(), claims, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []sales.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}
