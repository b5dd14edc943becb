package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"saletrack.org/internal/audit"
	"saletrack.org/internal/auth"
)

type challengeResponse struct {
	Prompt string `json:"prompt"`
	Token  string `json:"token"`
}

type loginRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ChallengeToken  string `json:"challenge_token"`
	ChallengeAnswer string `json:"challenge_answer"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      loginUser `json:"user"`
}

type loginUser struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	RoleID string    `json:"role_id"`
	Role   auth.Role `json:"role"`
}

func (a *API) handleChallenge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	prompt, token, err := a.challenges.Issue()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "challenge generation failed")
		return
	}
	writeJSON(w, http.StatusOK, challengeResponse{Prompt: prompt, Token: token})
}

// handleLogin verifies the bot-mitigation challenge first, then the
// credentials. Credential failures are indistinguishable to the caller:
// unknown email, inactive account and wrong password all yield the same
// 401.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}
	if len(email) > 50 {
		writeError(w, r, http.StatusBadRequest, "email must not exceed 50 characters")
		return
	}
	if req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "password is required")
		return
	}
	if len(req.Password) > 20 {
		writeError(w, r, http.StatusBadRequest, "password must not exceed 20 characters")
		return
	}

	if err := a.challenges.Verify(req.ChallengeToken, strings.TrimSpace(req.ChallengeAnswer)); err != nil {
		if errors.Is(err, auth.ErrChallengeMismatch) {
			writeError(w, r, http.StatusBadRequest, "challenge verification failed")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	ident, err := a.identities.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if !ident.Active {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := auth.VerifyPassword(ident.PasswordHash, req.Password); err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := a.tokens.Issue(ident)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"email":      ident.Email,
		"identity":   ident.ID,
		"role":       ident.RoleName,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: loginUser{
			ID:     ident.ID,
			Name:   ident.Name,
			Email:  ident.Email,
			RoleID: ident.RoleID,
			Role:   ident.RoleName,
		},
	})
}
