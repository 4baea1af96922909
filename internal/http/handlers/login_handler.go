package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"evlogger/internal/auth"
)

// NewLoginHandler handles POST /auth/login. A single configured admin
// password guards the command endpoints; a valid login yields a bearer
// token.
func NewLoginHandler(hasher auth.Hasher, passwordHash string, tokens *auth.TokenService) http.HandlerFunc {
	type request struct {
		Password string `json:"password"`
	}
	type response struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Password = strings.TrimSpace(req.Password)
		if req.Password == "" {
			writeError(w, http.StatusBadRequest, "password is required")
			return
		}

		if err := hasher.Compare(passwordHash, req.Password); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := tokens.Generate()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}

		writeJSON(w, http.StatusOK, response{
			Token:     token,
			TokenType: "Bearer",
		})
	}
}
