// Auth middleware is used to identify the user behind a request from a JWT sent via cookie or header.
// Tabcast doesn't require users, so an anonymous request passes through untouched unless required is set.

package auth

import (
	"Tabcast/internal/errors"
	"Tabcast/pkg/log"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Name of the cookie carrying the access token.
const TokenCookie = "access_token"

// This middleware is used to verify and validate incoming JWT signed with secret.
// A valid token sets "UserID" in the request's context from its username claim.
// An empty secret disables identification altogether.
func IdentifyMiddleware(logger log.Logger, secret string, required bool) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if secret == "" {
			gctx.Next()
			return
		}
		// Extract token from cookie or header
		token := fetchToken(gctx)
		if token == "" {
			if required {
				gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
				return
			}
			gctx.Next()
			return
		}
		// Parse the token with secret if the token is valid
		vrftoken, valerr := parseIntoJWT(gctx, logger, secret, token)
		if valerr != nil || !vrftoken.Valid {
			// Abort the call chain for the request here as the user is unauthenticated
			logger.WithCtx(gctx).Debug().Err(valerr).Msg("Rejected invalid token")
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		tokenclaims, ok := vrftoken.Claims.(jwt.MapClaims)
		if !ok {
			// Type assertion error
			logger.WithCtx(gctx).Error().Msg("Type assertion error in IdentifyMiddleware")
			gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}
		username, ok := tokenclaims["username"].(string)
		if !ok || username == "" {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		// Set UserID in request's context
		// This pair will be used further down in the handler chain
		gctx.Set("UserID", username)
		gctx.Next()
	}
}

// Helper to fetch token string from the access_token cookie, falling back to a Bearer Authorization header.
func fetchToken(gctx *gin.Context) string {
	if token, err := gctx.Request.Cookie(TokenCookie); err == nil && token.Value != "" {
		return token.Value
	}
	header := gctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// Helper to parse and return token string fetched from the request.
func parseIntoJWT(gctx *gin.Context, logger log.Logger, secret string, token string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		// Check the signing method
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			err := errors.New(fmt.Sprintf("Unexpected signing method found: %s", t.Header["alg"]))
			logger.WithCtx(gctx).Error().Err(err).Msg("Rejected token signing method")
			return nil, err
		}
		return []byte(secret), nil
	})
}
