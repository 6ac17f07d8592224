package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/khoilion/store-be/common/errors"
	"github.com/khoilion/store-be/models"
	"github.com/khoilion/store-be/services"
)

func newAuthService(t *testing.T) (*services.AuthService, *services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService("secret", time.Hour)
	require.NoError(t, err)
	return services.NewAuthService(newMemUsers(), tokens, zap.NewNop()), tokens
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	svc, tokens := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, " bob ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "hunter22", user.Password)

	res, err := svc.Login(ctx, "bob", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	id, err := tokens.ValidateAccessToken(res.JWT)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.Equal(t, models.RoleUser, id.Role)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", me.Username)
}

func TestAuth_Rejections(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob", "hunter22")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob", "another1")
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	_, err = svc.Register(ctx, "carol", "123")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.Login(ctx, "bob", "wrong-password")
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	_, errUnknown := svc.Login(ctx, "nobody", "hunter22")
	assert.Equal(t, apperrors.PublicMessage(err), apperrors.PublicMessage(errUnknown))

	_, err = svc.Me(ctx, "missing")
	assert.Equal(t, "User not found", apperrors.PublicMessage(err))
}
