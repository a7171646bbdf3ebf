package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"taller-backend/internal/middleware"
	"taller-backend/internal/models"
	"taller-backend/internal/services"
	"taller-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.UserService
}

func NewAuthHandler(s *services.UserService) *AuthHandler {
	return &AuthHandler{Service: s}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	resp, err := h.Service.Signup(r.Context(), &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	resp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTOTPRequerido):
			utils.Error(w, http.StatusUnauthorized, "totp code required")
		case errors.Is(err, services.ErrTOTPInvalido), errors.Is(err, services.ErrCredencialesInvalidas):
			utils.Error(w, http.StatusUnauthorized, err.Error())
		default:
			utils.Error(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "User not found")
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	resp, err := h.Service.SetupTOTP(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) VerifyTOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Service.VerifyTOTP(r.Context(), userID, req.Code); err != nil {
		utils.Error(w, http.StatusUnauthorized, err.Error())
		return
	}
	utils.Message(w, http.StatusOK, "2FA habilitado")
}
