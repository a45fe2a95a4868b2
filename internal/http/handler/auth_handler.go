package handler

import (
	"context"
	"net/http"

	"github.com/coderr/marketplace-api/internal/domain"
	"go.uber.org/zap"
)

// AuthService is the account surface used by AuthHandler
type AuthService interface {
	Register(ctx context.Context, req *domain.RegistrationRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
}

type AuthHandler struct {
	authService AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register a user
// @Description Creates a user with a customer or business profile and returns a token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.RegistrationRequest true "Registration data"
// @Success 201 {object} domain.AuthResponse
// @Failure 400 {object} domain.APIError
// @Router /registration [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := decodeBody(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "register user")
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in
// @Description Exchanges username and password for a token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.AuthResponse
// @Failure 400 {object} domain.APIError
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "log in")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
