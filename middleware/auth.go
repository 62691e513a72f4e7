package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/board/models"
	"github.com/cppla/board/services"
	"github.com/cppla/board/utils"
)

const (
	// ContextIdentityKey stores the authenticated services.Identity inside Gin context.
	ContextIdentityKey = "identity"
	// ContextClaimsKey stores the parsed token claims.
	ContextClaimsKey = "claims"
)

// bearerClaims extracts and validates the bearer token. It returns a code and
// message describing the failure when the token is unusable.
func bearerClaims(ctx *gin.Context) (*utils.Claims, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return nil, 40101, "authorization header missing"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, 40102, "invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return nil, 40103, "empty bearer token"
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return nil, 40105, "invalid token"
	}
	if utils.IsTokenBlacklisted(claims.RegisteredClaims.ID) {
		return nil, 40104, "token revoked"
	}
	return claims, 0, ""
}

func setIdentity(ctx *gin.Context, claims *utils.Claims) {
	ctx.Set(ContextClaimsKey, claims)
	ctx.Set(ContextIdentityKey, services.Identity{ID: claims.ID, Email: claims.Email, NickName: claims.NickName})
}

// AuthRequired ensures the request carries a valid, unrevoked bearer token.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, code, msg := bearerClaims(ctx)
		if claims == nil {
			utils.AbortError(ctx, http.StatusUnauthorized, code, msg)
			return
		}
		setIdentity(ctx, claims)
		ctx.Next()
	}
}

// OptionalAuth decodes a valid bearer token when present and otherwise lets the request through anonymously.
func OptionalAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if claims, _, _ := bearerClaims(ctx); claims != nil {
			setIdentity(ctx, claims)
		}
		ctx.Next()
	}
}

// AdminRequired must run after AuthRequired; it loads the account and rejects non-administrators.
func AdminRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := IdentityFrom(ctx)
		if !ok {
			utils.AbortError(ctx, http.StatusUnauthorized, 40110, "unauthorized")
			return
		}
		var user models.User
		if err := db.Select("id", "role", "is_active").First(&user, id.ID).Error; err != nil {
			utils.AbortError(ctx, http.StatusUnauthorized, 40111, "account not found")
			return
		}
		if !user.IsAdmin() || !user.IsActive {
			utils.AbortError(ctx, http.StatusForbidden, 40301, "administrator role required")
			return
		}
		ctx.Next()
	}
}

// IdentityFrom returns the identity set by AuthRequired or OptionalAuth.
func IdentityFrom(ctx *gin.Context) (services.Identity, bool) {
	v, ok := ctx.Get(ContextIdentityKey)
	if !ok {
		return services.Identity{}, false
	}
	id, ok := v.(services.Identity)
	return id, ok
}

// ClaimsFrom returns the token claims set by AuthRequired.
func ClaimsFrom(ctx *gin.Context) (*utils.Claims, bool) {
	v, ok := ctx.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	c, ok := v.(*utils.Claims)
	return c, ok
}
