package walletapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
	contextKeyUserID    = "wallet_user_id"

	errorCodeUnauthorized = "unauthorized"
)

// authMiddleware validates the bearer token and stashes the subject as the
// wallet user id. Missing or invalid tokens end the request with 401 so the
// client layer can classify the failure as an authorization error.
func authMiddleware(signingKey []byte, issuer string) gin.HandlerFunc {
	return func(requestContext *gin.Context) {
		header := requestContext.GetHeader(headerAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(requestContext, "missing bearer token")
			return
		}
		rawToken := strings.TrimPrefix(header, bearerPrefix)
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return signingKey, nil
		}, jwt.WithIssuer(issuer))
		if err != nil || !token.Valid {
			abortUnauthorized(requestContext, "invalid session token")
			return
		}
		if strings.TrimSpace(claims.Subject) == "" {
			abortUnauthorized(requestContext, "token missing subject")
			return
		}
		requestContext.Set(contextKeyUserID, claims.Subject)
		requestContext.Next()
	}
}

func abortUnauthorized(requestContext *gin.Context, message string) {
	requestContext.AbortWithStatusJSON(http.StatusUnauthorized, ErrorEnvelope{
		Error: ErrorPayload{Code: errorCodeUnauthorized, Message: message},
	})
}

func userIDFromContext(requestContext *gin.Context) string {
	value, exists := requestContext.Get(contextKeyUserID)
	if !exists {
		return ""
	}
	userID, _ := value.(string)
	return userID
}
