package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/idportal/utils"
)

const (
	// ContextClaimsKey stores the parsed *utils.Claims.
	ContextClaimsKey = "claims"
	// ContextTokenKey stores the raw token, used by logout.
	ContextTokenKey = "token"
	// ContextAdminIDKey is the key used to store the authenticated admin ID in Gin context.
	ContextAdminIDKey = "admin_id"
	// ContextUsernameKey stores the admin username inside Gin context.
	ContextUsernameKey = "username"
	// ContextApplicantEmailKey stores the verified applicant e-mail.
	ContextApplicantEmailKey = "applicant_email"
	// ContextUserTypeKey stores the applicant type carried by the token.
	ContextUserTypeKey = "user_type"

	// TokenCookieName is the HttpOnly cookie the browser client sends instead of a header.
	TokenCookieName = "token"
)

// AdminLookup confirms that the admin named by a token still exists.
type AdminLookup interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// Authenticator validates portal tokens and rejects revoked ones and those of removed admins.
type Authenticator struct {
	tokens    *utils.TokenIssuer
	blacklist *utils.TokenBlacklist
	admins    AdminLookup
}

func NewAuthenticator(tokens *utils.TokenIssuer, blacklist *utils.TokenBlacklist, admins AdminLookup) *Authenticator {
	return &Authenticator{tokens: tokens, blacklist: blacklist, admins: admins}
}

// extractToken reads a bearer token from the Authorization header or the token cookie.
func extractToken(ctx *gin.Context) (string, int, string) {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", 40102, "invalid authorization header format"
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return "", 40103, "empty bearer token"
		}
		return tokenString, 0, ""
	}
	if cookie, err := ctx.Cookie(TokenCookieName); err == nil && cookie != "" {
		return cookie, 0, ""
	}
	return "", 40101, "authentication required"
}

func (a *Authenticator) authenticate(ctx *gin.Context, kind string) (*utils.Claims, bool) {
	tokenString, code, msg := extractToken(ctx)
	if tokenString == "" {
		utils.Error(ctx, http.StatusUnauthorized, code, msg)
		ctx.Abort()
		return nil, false
	}

	if a.blacklist.IsRevoked(ctx.Request.Context(), tokenString) {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
		ctx.Abort()
		return nil, false
	}

	claims, err := a.tokens.Parse(tokenString)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		ctx.Abort()
		return nil, false
	}
	if kind != "" && claims.Kind != kind {
		utils.Error(ctx, http.StatusForbidden, 40301, "insufficient permissions")
		ctx.Abort()
		return nil, false
	}

	ctx.Set(ContextTokenKey, tokenString)
	ctx.Set(ContextClaimsKey, claims)
	return claims, true
}

// AdminRequired ensures the request carries a valid admin token of an admin that still exists.
func (a *Authenticator) AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := a.authenticate(ctx, utils.TokenKindAdmin)
		if !ok {
			return
		}
		exists, err := a.admins.Exists(ctx.Request.Context(), claims.AdminID)
		if err != nil {
			utils.Sugar.Errorw("admin lookup failed", "admin_id", claims.AdminID, "error", err)
			utils.Error(ctx, http.StatusInternalServerError, 50100, "internal server error")
			ctx.Abort()
			return
		}
		if !exists {
			utils.Error(ctx, http.StatusUnauthorized, 40109, "admin account no longer exists")
			ctx.Abort()
			return
		}
		ctx.Set(ContextAdminIDKey, claims.AdminID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

// ApplicantRequired ensures the request carries a token issued after e-mail verification.
func (a *Authenticator) ApplicantRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := a.authenticate(ctx, utils.TokenKindApplicant)
		if !ok {
			return
		}
		ctx.Set(ContextApplicantEmailKey, claims.Email)
		ctx.Set(ContextUserTypeKey, claims.UserType)
		ctx.Next()
	}
}

// AnyTokenRequired accepts both admin and applicant tokens.
func (a *Authenticator) AnyTokenRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := a.authenticate(ctx, ""); !ok {
			return
		}
		ctx.Next()
	}
}

// AdminID returns the authenticated admin id set by AdminRequired.
func AdminID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(ContextAdminIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Claims returns the parsed token claims.
func Claims(ctx *gin.Context) (*utils.Claims, bool) {
	v, ok := ctx.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	c, ok := v.(*utils.Claims)
	return c, ok
}
