package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/board/middleware"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// UserController exposes registration and account management.
type UserController struct {
	users *services.UserService
	posts *services.PostService
}

// NewUserController creates a new UserController instance.
func NewUserController(users *services.UserService, posts *services.PostService) *UserController {
	return &UserController{users: users, posts: posts}
}

// SignUp registers a new account.
func (u *UserController) SignUp(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Name     string `json:"name" binding:"required"`
		NickName string `json:"nickName" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}

	created, err := u.users.SignUp(services.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		NickName: req.NickName,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, "sign up succeeded", created)
}

// CheckEmail reports whether an email is still free.
func (u *UserController) CheckEmail(ctx *gin.Context) {
	email := ctx.Query("email")
	if email == "" {
		utils.Error(ctx, http.StatusBadRequest, 40010, "email is required")
		return
	}
	res, err := u.users.CheckEmail(email)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res.Message, res)
}

// Me returns the caller's token payload.
func (u *UserController) Me(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, "ok", u.users.Me(id))
}

// Update changes the caller's profile.
func (u *UserController) Update(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	var req struct {
		Email    *string `json:"email" binding:"omitempty,email"`
		Name     *string `json:"name"`
		NickName *string `json:"nickName"`
		Password *string `json:"password" binding:"omitempty,min=6"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx, err)
		return
	}

	profile, err := u.users.Update(id, services.UserUpdateInput{
		Email:    req.Email,
		Name:     req.Name,
		NickName: req.NickName,
		Password: req.Password,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "profile updated", profile)
}

// Delete closes the caller's account.
func (u *UserController) Delete(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	if err := u.users.Delete(id); err != nil {
		respondError(ctx, err)
		return
	}
	revokeCurrentToken(ctx)
	utils.Success(ctx, "account deleted", nil)
}

// revokeCurrentToken blacklists the bearer token of the request until it expires.
func revokeCurrentToken(ctx *gin.Context) {
	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		return
	}
	expiresAt := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(claims.RegisteredClaims.ID, expiresAt)
}

// ListPosts returns a user's posts, newest first.
func (u *UserController) ListPosts(ctx *gin.Context) {
	userID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	page, err := u.posts.ListByUser(userID, parsePagination(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, "ok", page)
}
