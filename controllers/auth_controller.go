package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/board/middleware"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// AuthController handles login, logout and account recovery.
type AuthController struct {
	auth *services.AuthService
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}

	res, err := a.auth.Login(req.Email, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "login succeeded", res)
}

// Me returns the decoded token payload.
func (a *AuthController) Me(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, "ok", id)
}

// Logout revokes the current token until it expires.
func (a *AuthController) Logout(ctx *gin.Context) {
	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	expiresAt := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	a.auth.Logout(claims.RegisteredClaims.ID, expiresAt)
	utils.Success(ctx, "logged out", nil)
}

// FindID confirms which email an account is registered under.
func (a *AuthController) FindID(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}
	email, err := a.auth.FindID(req.Email)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "account found", gin.H{"email": email})
}

// FindPassword issues a temporary password and mails it to the account owner.
func (a *AuthController) FindPassword(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Name  string `json:"name" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}
	if err := a.auth.FindPassword(req.Email, req.Name); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "a temporary password has been sent by email", nil)
}
