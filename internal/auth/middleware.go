package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userContextKey = "user_context"

// UserContext 请求内的当前用户身份
type UserContext struct {
	UserID string
	OrgID  string
	Claims *TokenClaims
}

// Middleware 校验 Bearer 令牌并注入用户身份
func Middleware(jwtService *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少认证信息"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "认证格式不正确"})
			return
		}

		claims, err := jwtService.ParseToken(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "令牌无效或已过期"})
			return
		}
		if claims.TokenType != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "令牌类型不正确"})
			return
		}

		c.Set(userContextKey, &UserContext{
			UserID: claims.UserID,
			OrgID:  claims.OrgID,
			Claims: claims,
		})
		c.Next()
	}
}

// GetUserContext 取出当前用户身份，未认证时返回 false
func GetUserContext(c *gin.Context) (*UserContext, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	uc, ok := value.(*UserContext)
	return uc, ok
}
