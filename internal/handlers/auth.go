package handlers

import (
	"errors"
	"time"

	"neokids-server/internal/middleware"
	"neokids-server/internal/models"
	"neokids-server/internal/store"
	"neokids-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles staff sign-up, login and profile requests.
type AuthHandler struct {
	Users     store.UserRepository
	Log       *zap.Logger
	JWTSecret string
	TokenTTL  time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users store.UserRepository, log *zap.Logger, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{Users: users, Log: log, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

// SignupRequest represents the request body for staff registration.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=150"`
	Role     string `json:"role" validate:"required,oneof=administrador atendente tecnico"`
}

// Signup registers a staff member. Only an authenticated administrador may
// create another administrador.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if models.Role(req.Role) == models.RoleAdmin {
		if role, ok := middleware.GetUserRoleFromContext(c); !ok || role != models.RoleAdmin {
			utils.Forbidden(c, "Apenas administradores podem cadastrar administradores")
			return
		}
	}

	user := models.User{
		Email: req.Email,
		Name:  req.Name,
		Role:  models.Role(req.Role),
	}
	if err := user.SetPassword(req.Password); err != nil {
		h.Log.Error("hash password", zap.Error(err))
		utils.InternalServerError(c, "Erro ao criar usuário")
		return
	}

	if err := h.Users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			utils.Conflict(c, "Usuário já cadastrado com este email")
			return
		}
		respondStoreError(c, h.Log, err, "Usuário não encontrado", "Erro ao criar usuário")
		return
	}

	h.Log.Info("user signed up", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	utils.Created(c, gin.H{"success": true, "user": user.Sanitize()})
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken string               `json:"accessToken"`
	ExpiresIn   int                  `json:"expiresIn"`
	User        models.UserSanitized `json:"user"`
}

// Login exchanges credentials for a signed access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Unauthorized(c, "Email ou senha inválidos")
			return
		}
		respondStoreError(c, h.Log, err, "Usuário não encontrado", "Erro ao autenticar")
		return
	}
	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Email ou senha inválidos")
		return
	}

	accessToken, err := utils.GenerateAccessToken(user, h.JWTSecret, h.TokenTTL)
	if err != nil {
		h.Log.Error("sign access token", zap.String("user_id", user.ID), zap.Error(err))
		utils.InternalServerError(c, "Erro ao autenticar")
		return
	}

	utils.Success(c, LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(h.TokenTTL.Seconds()),
		User:        user.Sanitize(),
	})
}

// GetProfile returns the authenticated user.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "Usuário não autenticado")
		return
	}

	user, err := h.Users.FindByID(c.Request.Context(), userID)
	if err != nil {
		respondStoreError(c, h.Log, err, "Usuário não encontrado", "Erro ao buscar perfil")
		return
	}
	utils.Success(c, gin.H{"user": user.Sanitize()})
}
