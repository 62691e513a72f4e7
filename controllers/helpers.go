package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/board/middleware"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

// respondError maps service failures onto the envelope; unknown errors become 500.
func respondError(ctx *gin.Context, err error) {
	if appErr, ok := services.AsAppError(err); ok {
		utils.Respond(ctx, appErr.Status, appErr.Code, appErr.ErrorCode, appErr.Message, nil)
		return
	}
	utils.Logger.Error("request failed",
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.FullPath()),
		zap.String("request_id", ctx.GetString(utils.RequestIDKey)),
		zap.Error(err),
	)
	utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
}

func badPayload(ctx *gin.Context, err error) {
	utils.Error(ctx, http.StatusBadRequest, 40000, "invalid request payload: "+err.Error())
}

// currentIdentity returns the caller set by the auth middleware.
func currentIdentity(ctx *gin.Context) (services.Identity, bool) {
	id, ok := middleware.IdentityFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
	}
	return id, ok
}

// parseID reads a positive integer path parameter and answers 400 when it is malformed.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || v == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// parsePagination reads page and limit query values; bad values fall back to defaults.
func parsePagination(ctx *gin.Context) services.Page {
	page, _ := strconv.Atoi(ctx.Query("page"))
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	return services.NewPage(page, limit)
}

// optionalUint parses an optional non-negative integer query value.
func optionalUint(ctx *gin.Context, name string) (*uint, bool) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid "+name)
		return nil, false
	}
	u := uint(v)
	return &u, true
}
