package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/scriba/internal/account/domain"
	"go.uber.org/zap"
)

const (
	headerAPIKey      = "X-API-Key"
	contextAccountKey = "account"
)

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	access := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.Error(lastErr.Err))
		}

		if c.Writer.Status() >= 500 {
			access.Error("request", fields...)
			return
		}
		access.Info("request", fields...)
	}
}

// APIKeyRequired authenticates the caller via the X-API-Key header and puts
// the resolved account on the request context.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := strings.TrimSpace(c.GetHeader(headerAPIKey))
		if rawKey == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		acct, err := s.accountSvc.AuthenticateAPIKey(c.Request.Context(), rawKey)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextAccountKey, acct)
		c.Next()
	}
}

func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		acct := currentAccount(c)
		if acct == nil || !acct.IsAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentAccount(c *gin.Context) *accountdomain.Account {
	value, ok := c.Get(contextAccountKey)
	if !ok {
		return nil
	}
	acct, ok := value.(*accountdomain.Account)
	if !ok {
		return nil
	}
	return acct
}
