package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/khoilion/store-be/common/errors"
	"github.com/khoilion/store-be/models"
	"github.com/khoilion/store-be/repository"
	"github.com/khoilion/store-be/services"
)

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

type MockTokenIssuer struct{ mock.Mock }

func (m *MockTokenIssuer) GenerateAccessToken(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func TestAuth_LoginIssuesTokenForRole(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: userID, Username: "alice", Password: string(hash), Role: models.RoleAdmin}

	repo := new(MockUserRepository)
	tokens := new(MockTokenIssuer)
	repo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)
	tokens.On("GenerateAccessToken", userID, models.RoleAdmin).Return("signed.jwt", nil).Once()

	svc := services.NewAuthService(repo, tokens, zap.NewNop())
	res, err := svc.Login(context.Background(), "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt", res.JWT)
	assert.Equal(t, models.RoleAdmin, res.User.Role)

	repo.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestAuth_StoreFailuresAreInternal(t *testing.T) {
	repo := new(MockUserRepository)
	tokens := new(MockTokenIssuer)
	repo.On("FindByUsername", mock.Anything, "bob").Return(nil, errors.New("connection reset"))

	svc := services.NewAuthService(repo, tokens, zap.NewNop())

	_, err := svc.Register(context.Background(), "bob", "hunter22")
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

	_, err = svc.Login(context.Background(), "bob", "hunter22")
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	tokens.AssertNotCalled(t, "GenerateAccessToken", mock.Anything, mock.Anything)
}

func TestAuth_RegisterRaceMapsDuplicate(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByUsername", mock.Anything, "carol").Return(nil, repository.ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(repository.ErrDuplicate)

	svc := services.NewAuthService(repo, new(MockTokenIssuer), zap.NewNop())
	_, err := svc.Register(context.Background(), "carol", "hunter22")
	assert.Equal(t, "User already exists", apperrors.PublicMessage(err))
	repo.AssertExpectations(t)
}
