package security

import (
	"Inkwell/internal/api/config"
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	Init(config.JWTConfig{Secret: "s3cret", Issuer: "test"})

	token, err := GenerateToken("u1", []string{"ADMIN"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, []string{"ADMIN"}, claims.Roles)

	sig, err := ExtractSignature(token)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}

func TestValidateTokenRejects(t *testing.T) {
	Init(config.JWTConfig{Secret: "s3cret"})

	expired, err := GenerateToken("u1", nil, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired)
	assert.Error(t, err)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{UserID: "u1"})
	forged, err := other.SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = ValidateToken(forged)
	assert.Error(t, err)

	_, err = ExtractSignature("not-a-token")
	assert.Error(t, err)
}

func TestActorCanEdit(t *testing.T) {
	author := Actor{UserID: "u1"}
	admin := Actor{UserID: "u9", Roles: []string{"ADMIN"}}
	stranger := Actor{UserID: "u2", Roles: []string{"AUTHOR"}}

	assert.True(t, author.CanEdit("u1"))
	assert.True(t, admin.CanEdit("u1"))
	assert.False(t, stranger.CanEdit("u1"))
	assert.False(t, Actor{}.CanEdit(""))
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), Actor{UserID: "u1"})
	a, ok := ActorFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", a.UserID)
}
