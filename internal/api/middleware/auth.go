package middleware

import (
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/redis"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/pkg/security"
	"strings"

	"github.com/gin-gonic/gin"
)

// ActorKey gin.Context 中保存操作者的 Key
const ActorKey = "actor"

// AuthMiddleware 负责验证 JWT 并将操作者注入 Context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		signature, err := security.ExtractSignature(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		// 身份服务注销的 Token 会写入黑名单
		if redis.Enabled() {
			value, err := redis.GetValue(c.Request.Context(), consts.TokenBlacklistKey+signature)
			if err != nil {
				response.Fail(c, response.InternalServerError, "未知错误")
				c.Abort()
				return
			}
			if value != "" {
				response.Fail(c, response.Unauthorized, "Token 无效或已过期")
				c.Abort()
				return
			}
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		actor := security.ActorFromClaims(claims)
		c.Set(ActorKey, actor)
		c.Set("user_id", actor.UserID)
		c.Set("roles", actor.Roles)

		c.Request = c.Request.WithContext(security.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

// CurrentActor 取出鉴权中间件注入的操作者，未鉴权时为零值
func CurrentActor(c *gin.Context) security.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(security.Actor); ok {
			return actor
		}
	}
	actor, _ := security.ActorFrom(c.Request.Context())
	return actor
}
