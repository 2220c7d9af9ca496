package api

import (
	"encoding/json"
	"net/http"

	"github.com/measurelab/measurand/internal/audit"
	"github.com/measurelab/measurand/internal/auth"
)

// updateMeRequest is the request body for PATCH /users/me. Nil fields
// are left unchanged.
type updateMeRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// handleMe returns the authenticated user's profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	user, err := s.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleUpdateMe applies a partial profile update: email and/or
// password.
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req updateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Email == nil && req.Password == nil {
		writeBadRequest(w, "nothing to update")
		return
	}

	user, err := s.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	// Validate the whole patch before writing any of it, so a rejected
	// password cannot leave a half-applied email change behind.
	var passwordHash string
	if req.Password != nil {
		if auth.IsWeakPassword(*req.Password) {
			s.writeDomainError(w, auth.ErrWeakPassword)
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error("password hash failed", "user_id", user.ID, "error", err)
			writeInternalError(w, "internal server error")
			return
		}
		passwordHash = hash
	}

	if req.Email != nil {
		user.Email = *req.Email
		if err := s.users.Update(r.Context(), user); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}

	if passwordHash != "" {
		if err := s.users.UpdatePassword(r.Context(), user.ID, passwordHash); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}

	s.recordAudit(r, audit.ActionUpdate, audit.EntityUser, user.ID, user.ID, nil)

	updated, err := s.users.GetByID(r.Context(), user.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
