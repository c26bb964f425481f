// Token issuing used by the tabcast token command.

package auth

import (
	"Tabcast/pkg/log"
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// IssueToken signs an HS256 access token identifying username, valid for ttl.
func IssueToken(ctx context.Context, logger log.Logger, secret string, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	token, jwterr := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username":          username,
		"access_token_uuid": uuid.NewString(),
		"iat":               now.Unix(),
		"exp":               now.Add(ttl).Unix(),
	}).SignedString([]byte(secret))
	if jwterr != nil {
		logger.WithCtx(ctx).Error().Err(jwterr).Msg("Error occured during signing JWT in auth.IssueToken")
		return "", jwterr
	}
	return token, nil
}
