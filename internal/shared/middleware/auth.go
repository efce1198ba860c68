package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/domains/user"
	"marketplace-backend/internal/shared/authz"
	"marketplace-backend/internal/shared/response"
)

const (
	ContextUserID = "user_id"
	ContextCaller = "caller"
)

// AuthMiddleware - xác thực Bearer token qua authz.Gate, set caller vào context
func AuthMiddleware(gate *authz.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "Not authorized, no token")
			return
		}

		caller, err := gate.ResolveCaller(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, authz.ErrUnauthenticated) {
				response.Unauthorized(c, "Not authorized, token failed")
				return
			}
			log.Error().Err(err).Str("request_id", c.GetString(ContextRequestID)).Msg("Failed to resolve caller")
			response.InternalServerError(c, "Internal server error")
			return
		}

		c.Set(ContextUserID, caller.ID)
		c.Set(ContextCaller, caller)
		c.Next()
	}
}

// "Bearer <token>", scheme không phân biệt hoa thường
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUserID lấy caller ID do AuthMiddleware set
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

func GetCaller(c *gin.Context) (*user.User, bool) {
	value, exists := c.Get(ContextCaller)
	if !exists {
		return nil, false
	}
	u, ok := value.(*user.User)
	return u, ok
}
