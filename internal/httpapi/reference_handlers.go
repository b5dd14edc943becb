package httpapi

import (
	"net/http"

	"saletrack.org/internal/auth"
	"saletrack.org/internal/sales"
)

// Reference lists back the catalog the UI builds its forms from. All four
// endpoints require a session; the role list additionally requires an
// administrator because it feeds the user-administration screen.

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := auth.Authorize(claims); err != nil {
		handleServiceError(w, r, err)
		return
	}
	products, err := a.sales.Products(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if products == nil {
		products = []sales.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleFranchises(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := auth.Authorize(claims); err != nil {
		handleServiceError(w, r, err)
		return
	}
	franchises, err := a.sales.Franchises(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if franchises == nil {
		franchises = []sales.Franchise{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"franchises": franchises})
}

func (a *API) handleStatuses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := auth.Authorize(claims); err != nil {
		handleServiceError(w, r, err)
		return
	}
	statuses, err := a.sales.Statuses(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if statuses == nil {
		statuses = []sales.Status{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"statuses": statuses})
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := auth.Authorize(claims, auth.RoleAdministrator); err != nil {
		handleServiceError(w, r, err)
		return
	}
	roles, err := a.identities.Roles(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if roles == nil {
		roles = []auth.RoleInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}
