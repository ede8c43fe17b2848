// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"

	"github.com/veriauth/veriauth/internal/account"
)

// accountResponse is the public shape of an account. The password hash
// and any pending OTP never leave the server.
type accountResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     string    `json:"address"`
	IsVerified  bool      `json:"isVerified"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toAccountResponse(a *account.Account) accountResponse {
	return accountResponse{
		ID:          a.ID.String(),
		Name:        a.Name,
		Username:    a.Username,
		Email:       a.Email,
		PhoneNumber: a.PhoneNumber,
		Address:     a.Address,
		IsVerified:  a.Verified,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID extracts and parses the {id} path variable. A malformed id is
// reported the same way as a missing one.
func pathID(w http.ResponseWriter, r *http.Request) (ulid.ULID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := ulid.Parse(raw)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "User ID is required.")
		return ulid.ULID{}, false
	}
	return id, true
}

type registerRequest struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := s.svc.Register(r.Context(), account.RegisterInput{
		Name:        req.Name,
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		if errors.Is(err, account.ErrConflict) {
			respondMessage(w, http.StatusBadRequest, "Username or email already exists")
			return
		}
		s.serverError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered. OTP sent to email.",
		"userId":  acct.ID.String(),
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		if errors.Is(err, account.ErrInvalidOTP) {
			s.recordAuthFailure("invalid_otp")
			respondMessage(w, http.StatusBadRequest, "Invalid or expired OTP")
			return
		}
		s.serverError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Email verified successfully. You can now log in.")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := s.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidCredentials):
			s.recordAuthFailure("invalid_credentials")
			respondMessage(w, http.StatusBadRequest, "Invalid username or password")
		case errors.Is(err, account.ErrNotVerified):
			s.recordAuthFailure("not_verified")
			respondMessage(w, http.StatusBadRequest, "Please verify your email first")
		default:
			s.serverError(w, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"token":   token,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "User not found")
			return
		}
		s.serverError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "OTP sent to your email")
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		if errors.Is(err, account.ErrInvalidOTP) {
			s.recordAuthFailure("invalid_otp")
			respondMessage(w, http.StatusBadRequest, "Invalid or expired OTP")
			return
		}
		s.serverError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Password reset successfully")
}

// handleLogout exists for client symmetry. Session tokens are
// self-contained and expire on their own, so there is no server state
// to discard.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, http.StatusOK, "Logout successful.")
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	accts, err := s.svc.List(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}

	out := make([]accountResponse, 0, len(accts))
	for _, a := range accts {
		out = append(out, toAccountResponse(a))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	acct, err := s.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		s.serverError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toAccountResponse(acct))
}

type updateUserRequest struct {
	Name        *string `json:"name"`
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	PhoneNumber *string `json:"phoneNumber"`
	Address     *string `json:"address"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := s.svc.UpdateAccount(r.Context(), id, account.Update{
		Name:        req.Name,
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			respondMessage(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, account.ErrConflict):
			respondMessage(w, http.StatusBadRequest, "Username or email already exists")
		default:
			s.serverError(w, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully.",
		"user":    toAccountResponse(acct),
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	acct, err := s.svc.DeleteAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "User not found.")
			return
		}
		s.serverError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "User deleted successfully.",
		"user":    toAccountResponse(acct),
	})
}
