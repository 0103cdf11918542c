package userservice_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"userhub/internal/domain"
	apperror "userhub/internal/errors"
	"userhub/internal/pkg/credentials"
	"userhub/internal/pkg/logger"
	"userhub/internal/service/userservice"
)

// MockUserRepository é uma implementação mock da interface UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) Insert(ctx context.Context, nu domain.NewUser) (domain.User, error) {
	args := m.Called(ctx, nu)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) ApplyPartialUpdate(ctx context.Context, id int, patch domain.UserPatch) (domain.User, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(domain.User), args.Error(1)
}

// RecordLogin devolve o registro "atual" configurado no mock e aplica verify sobre ele,
// como o repositório real faz dentro do ciclo travado.
func (m *MockUserRepository) RecordLogin(ctx context.Context, id int, at time.Time, verify func(current domain.User) error) (domain.User, error) {
	args := m.Called(ctx, id, at)
	if err := args.Error(1); err != nil {
		return domain.User{}, err
	}
	current := args.Get(0).(domain.User)
	if verify != nil {
		if err := verify(current); err != nil {
			return domain.User{}, err
		}
	}
	return current, nil
}

func (m *MockUserRepository) Remove(ctx context.Context, id int) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// Helper function to create a silent logger
func newTestLogger() logger.Logger {
	return logger.NewLoggerTo("error", io.Discard)
}

func notFound() error {
	return apperror.NewNotFoundError("User not found")
}

func validRegistration() domain.UserRegistration {
	return domain.UserRegistration{Name: "Ana", Email: "a@x.com", Password: "pw", Role: domain.RoleAdmin}
}

func strPtr(s string) *string { return &s }

// --- Testes para Register / Create ---

func TestRegister_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	expected := domain.User{ID: 1, Name: "Ana", Email: "a@x.com", Password: "pw", Role: domain.RoleAdmin, CreatedAt: "2024-01-01T00:00:00.000Z"}
	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(domain.User{}, notFound())
	mockRepo.On("Insert", mock.Anything, domain.NewUser{Name: "Ana", Email: "a@x.com", Password: "pw", Role: domain.RoleAdmin}).Return(expected, nil)

	user, err := svc.Register(context.Background(), validRegistration())

	assert.NoError(t, err)
	assert.Equal(t, expected, user)
	mockRepo.AssertExpectations(t)
}

func TestRegister_Fail_MissingFields(t *testing.T) {
	cases := map[string]domain.UserRegistration{
		"sem nome":    {Email: "a@x.com", Password: "pw", Role: domain.RoleAdmin},
		"sem email":   {Name: "Ana", Password: "pw", Role: domain.RoleAdmin},
		"sem senha":   {Name: "Ana", Email: "a@x.com", Role: domain.RoleAdmin},
		"sem papel":   {Name: "Ana", Email: "a@x.com", Password: "pw"},
		"nome branco": {Name: "   ", Email: "a@x.com", Password: "pw", Role: domain.RoleAdmin},
	}

	for name, reg := range cases {
		t.Run(name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

			_, err := svc.Register(context.Background(), reg)

			assert.IsType(t, &apperror.ValidationError{}, err)
			assert.Contains(t, err.Error(), userservice.MsgAllFieldsRequired)
			mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_Fail_InvalidRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	reg := validRegistration()
	reg.Role = "superuser"
	_, err := svc.Register(context.Background(), reg)

	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), userservice.MsgInvalidRole)
	mockRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestRegister_Fail_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(domain.User{ID: 1, Email: "a@x.com"}, nil)

	_, err := svc.Register(context.Background(), validRegistration())

	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestRegister_Fail_RaceConflictFromRepository(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(domain.User{}, notFound())
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(domain.User{}, apperror.NewConflictError("Email already exists"))

	_, err := svc.Register(context.Background(), validRegistration())

	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertExpectations(t)
}

func TestRegister_Fail_StorageFaultPropagates(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	fault := apperror.NewStorageError("falha ao ler", errors.New("eio"))
	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(domain.User{}, fault)

	_, err := svc.Register(context.Background(), validRegistration())

	assert.Equal(t, fault, err)
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestRegister_BcryptStoresHash(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Bcrypt{Cost: bcrypt.MinCost}, newTestLogger())

	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(domain.User{}, notFound())
	mockRepo.On("Insert", mock.Anything, mock.MatchedBy(func(nu domain.NewUser) bool {
		return nu.Password != "pw" && bcrypt.CompareHashAndPassword([]byte(nu.Password), []byte("pw")) == nil
	})).Return(domain.User{ID: 1}, nil)

	_, err := svc.Register(context.Background(), validRegistration())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestRegister_Fail_PasswordTooLongForBcrypt(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Bcrypt{Cost: bcrypt.MinCost}, newTestLogger())

	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(domain.User{}, notFound())
	reg := validRegistration()
	reg.Password = strings.Repeat("p", 80)

	_, err := svc.Register(context.Background(), reg)

	require.Error(t, err)
	status, category, message := apperror.MapToHTTPStatus(err)
	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_ERROR", category)
	assert.Equal(t, userservice.MsgPasswordTooLong, message)
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreate_SharesRegisterRules(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(domain.User{ID: 1}, nil)

	_, err := svc.Create(context.Background(), validRegistration())
	assert.IsType(t, &apperror.ConflictError{}, err)

	_, err = svc.Create(context.Background(), domain.UserRegistration{Name: "Ana"})
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// --- Testes para Authenticate ---

func TestAuthenticate_Success_ReturnsUpdatedLastLogin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	stored := domain.User{ID: 1, Email: "a@x.com", Password: "pw", LastLogin: ""}
	logged := stored
	logged.LastLogin = "2024-05-01T12:00:00.000Z"
	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(stored, nil)
	mockRepo.On("RecordLogin", mock.Anything, 1, mock.AnythingOfType("time.Time")).Return(logged, nil)

	user, err := svc.Authenticate(context.Background(), "a@x.com", "pw")

	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", user.LastLogin)
	mockRepo.AssertExpectations(t)
}

func TestAuthenticate_Fail_MissingFields(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	_, err := svc.Authenticate(context.Background(), "a@x.com", "")
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.Authenticate(context.Background(), "", "pw")
	assert.IsType(t, &apperror.ValidationError{}, err)

	mockRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAuthenticate_Fail_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	stored := domain.User{ID: 1, Email: "a@x.com", Password: "pw"}
	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(stored, nil)
	mockRepo.On("RecordLogin", mock.Anything, 1, mock.AnythingOfType("time.Time")).Return(stored, nil)

	_, err := svc.Authenticate(context.Background(), "a@x.com", "nope")

	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	_, _, message := apperror.MapToHTTPStatus(err)
	assert.Equal(t, userservice.MsgInvalidCredentials, message)
}

func TestAuthenticate_Fail_PasswordChangedAfterLookup(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	// A busca ainda vê a senha antiga; o registro atual já tem a nova.
	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(domain.User{ID: 1, Email: "a@x.com", Password: "antiga"}, nil)
	mockRepo.On("RecordLogin", mock.Anything, 1, mock.AnythingOfType("time.Time")).Return(domain.User{ID: 1, Email: "a@x.com", Password: "nova"}, nil)

	_, err := svc.Authenticate(context.Background(), "a@x.com", "antiga")

	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}

func TestAuthenticate_Fail_UserRemovedAfterLookup(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(domain.User{ID: 1, Email: "a@x.com", Password: "pw"}, nil)
	mockRepo.On("RecordLogin", mock.Anything, 1, mock.AnythingOfType("time.Time")).Return(domain.User{}, notFound())

	_, err := svc.Authenticate(context.Background(), "a@x.com", "pw")

	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}

func TestAuthenticate_Fail_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	mockRepo.On("FindByEmail", mock.Anything, "ghost@x.com").Return(domain.User{}, notFound())

	_, err := svc.Authenticate(context.Background(), "ghost@x.com", "pw")

	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	_, _, message := apperror.MapToHTTPStatus(err)
	assert.Equal(t, userservice.MsgInvalidCredentials, message)
}

// --- Testes para Get / List ---

func TestGet_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	mockRepo.On("FindByID", mock.Anything, 7).Return(domain.User{}, notFound())

	_, err := svc.Get(context.Background(), 7)

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestList_Passthrough(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	expected := []domain.User{{ID: 1}, {ID: 2}}
	mockRepo.On("ListAll", mock.Anything).Return(expected, nil)

	users, err := svc.List(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, expected, users)
}

// --- Testes para Update ---

func TestUpdate_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	patch := domain.UserPatch{Name: strPtr("X")}
	mockRepo.On("ApplyPartialUpdate", mock.Anything, 1, patch).Return(domain.User{ID: 1, Name: "X"}, nil)

	user, err := svc.Update(context.Background(), 1, patch)

	assert.NoError(t, err)
	assert.Equal(t, "X", user.Name)
	mockRepo.AssertExpectations(t)
}

func TestUpdate_EmptyPatchReturnsCurrentRecord(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	mockRepo.On("FindByID", mock.Anything, 1).Return(domain.User{ID: 1, Name: "Ana"}, nil)

	user, err := svc.Update(context.Background(), 1, domain.UserPatch{})

	assert.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	mockRepo.AssertNotCalled(t, "ApplyPartialUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_Fail_Validation(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	_, err := svc.Update(context.Background(), 1, domain.UserPatch{Name: strPtr("  ")})
	assert.IsType(t, &apperror.ValidationError{}, err)

	bad := domain.UserRole("root")
	_, err = svc.Update(context.Background(), 1, domain.UserPatch{Role: &bad})
	assert.IsType(t, &apperror.ValidationError{}, err)

	mockRepo.AssertNotCalled(t, "ApplyPartialUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	patch := domain.UserPatch{Name: strPtr("X")}
	mockRepo.On("ApplyPartialUpdate", mock.Anything, 9, patch).Return(domain.User{}, notFound())

	_, err := svc.Update(context.Background(), 9, patch)

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestUpdate_PasswordGoesThroughHasher(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Bcrypt{Cost: bcrypt.MinCost}, newTestLogger())

	mockRepo.On("ApplyPartialUpdate", mock.Anything, 1, mock.MatchedBy(func(p domain.UserPatch) bool {
		return p.Password != nil && bcrypt.CompareHashAndPassword([]byte(*p.Password), []byte("novo")) == nil
	})).Return(domain.User{ID: 1}, nil)

	_, err := svc.Update(context.Background(), 1, domain.UserPatch{Password: strPtr("novo")})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdate_Fail_PasswordTooLongForBcrypt(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Bcrypt{Cost: bcrypt.MinCost}, newTestLogger())

	_, err := svc.Update(context.Background(), 1, domain.UserPatch{Password: strPtr(strings.Repeat("p", 73))})

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "ApplyPartialUpdate", mock.Anything, mock.Anything, mock.Anything)
}

// --- Testes para Delete ---

func TestDelete_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	mockRepo.On("Remove", mock.Anything, 1).Return(true, nil)

	assert.NoError(t, svc.Delete(context.Background(), 1))
	mockRepo.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, credentials.Plain{}, newTestLogger())

	mockRepo.On("Remove", mock.Anything, 1).Return(false, nil)

	err := svc.Delete(context.Background(), 1)

	assert.IsType(t, &apperror.NotFoundError{}, err)
}
