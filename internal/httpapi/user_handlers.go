package httpapi

import (
	"net/http"
	"net/mail"
	"strings"

	"saletrack.org/internal/audit"
	"saletrack.org/internal/auth"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   string `json:"role_id"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	case http.MethodPost:
		a.createUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := auth.Authorize(claims, auth.RoleAdministrator); err != nil {
		handleServiceError(w, r, err)
		return
	}
	users, err := a.identities.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []auth.Identity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := auth.Authorize(claims, auth.RoleAdministrator); err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if email == "" {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}
	if len(email) > 50 {
		writeError(w, r, http.StatusBadRequest, "email must not exceed 50 characters")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, r, http.StatusBadRequest, "email is not valid")
		return
	}
	if len(req.Password) < 6 || len(req.Password) > 20 {
		writeError(w, r, http.StatusBadRequest, "password must be between 6 and 20 characters")
		return
	}
	roleID := strings.TrimSpace(req.RoleID)
	if roleID == "" {
		writeError(w, r, http.StatusBadRequest, "role_id is required")
		return
	}

	// Resolve the role now so the identity is stored with a usable role
	// name and a bad role_id fails here, not at the user's first login.
	roles, err := a.identities.Roles(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var roleName auth.Role
	for _, role := range roles {
		if role.ID == roleID {
			roleName = role.Name
			break
		}
	}
	if roleName == "" {
		writeError(w, r, http.StatusBadRequest, "role_id does not reference a known role")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	ident := &auth.Identity{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       roleID,
		RoleName:     roleName,
		Active:       true,
	}
	if err := a.identities.Create(r.Context(), ident); err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "users.create", map[string]any{
		"identity": ident.ID,
		"email":    ident.Email,
		"role_id":  ident.RoleID,
	})

	w.Header().Set("Location", "/v1/users/"+ident.ID)
	writeJSON(w, http.StatusCreated, ident)
}
