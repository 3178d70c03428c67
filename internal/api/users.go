package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"researchhub/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("email, username and password are required"))
		return
	}

	if _, exists, err := s.userRepo.GetByEmail(r.Context(), req.Email); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	} else if exists {
		writeErr(w, http.StatusConflict, fmt.Errorf("email already registered"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("hash password: %w", err))
		return
	}

	u := models.User{UserID: uuid.NewString(), Email: req.Email, Username: req.Username}
	if err := s.userRepo.Create(r.Context(), u, string(hash)); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user_id": u.UserID, "email": u.Email, "username": u.Username})
}
