package security

import (
	"Inkwell/internal/pkg/consts"
	"context"
)

// Actor 当前请求的操作者，显式传给每个服务调用
type Actor struct {
	UserID string
	Roles  []string
}

// ActorFromClaims 由 Token 构造操作者
func ActorFromClaims(c *UserClaims) Actor {
	roles := make([]string, len(c.Roles))
	copy(roles, c.Roles)
	return Actor{UserID: c.UserID, Roles: roles}
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.HasRole(consts.RoleAdmin)
}

// CanEdit 作者本人或管理员
func (a Actor) CanEdit(authorID string) bool {
	if a.UserID == "" {
		return false
	}
	return a.UserID == authorID || a.IsAdmin()
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
