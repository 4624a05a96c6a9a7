package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/repository"
	"github.com/spec-kit/identity-service/pkg/util"
)

const testSecret = "service_test_secret"

type accountFixture struct {
	svc      *AccountService
	users    *repository.MemoryUserRepository
	tokens   *auth.TokenManager
	hasher   *auth.PasswordHasher
	pipeline *auth.Pipeline
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)

	policies := auth.NewPolicyTable(map[auth.RouteKey]auth.RoutePolicy{
		{Method: "GET", Path: "/protected"}: auth.Authenticated(),
	})

	return &accountFixture{
		svc: NewAccountService(AccountDependencies{
			Users:  users,
			Hasher: hasher,
			Tokens: tokens,
		}),
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		pipeline: auth.NewPipeline(policies, tokens, auth.NewIdentityResolver(users)),
	}
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:    "Joao@Example.com ",
		Phone:    "+5511999999999",
		Password: "123456",
		Name:     "João Silva",
	}
}

func TestRegister_Success(t *testing.T) {
	f := newAccountFixture(t)

	res, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.NotEmpty(t, res.User.ID)
	assert.Equal(t, "joao@example.com", res.User.Email)
	assert.Equal(t, domain.RoleUser, res.User.Role)
	assert.True(t, res.User.IsActive)
	assert.NotEqual(t, "123456", res.User.PasswordHash)
	assert.True(t, f.hasher.Verify("123456", res.User.PasswordHash))

	claims, err := f.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID())
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.Equal(t, "João Silva", claims.Name)
	assert.Equal(t, "+5511999999999", claims.Phone)
	assert.Equal(t, "joao@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, time.Minute)
}

func TestRegister_ValidationHappensBeforeStore(t *testing.T) {
	f := newAccountFixture(t)

	in := validRegistration()
	in.Phone = "5511999999999"
	_, err := f.svc.Register(context.Background(), in)
	assert.True(t, util.IsCode(err, util.CodePhoneNotValid))

	in = validRegistration()
	in.Password = "12345"
	_, err = f.svc.Register(context.Background(), in)
	assert.True(t, util.IsCode(err, util.CodePasswordNotValid))

	all, err := f.users.List(context.Background(), repository.UserFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRegister_Conflicts(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	sameEmail := validRegistration()
	sameEmail.Phone = "+5521988887777"
	_, err = f.svc.Register(ctx, sameEmail)
	assert.True(t, util.IsCode(err, util.CodeEmailAlreadyExists))

	samePhone := validRegistration()
	samePhone.Email = "other@example.com"
	_, err = f.svc.Register(ctx, samePhone)
	assert.True(t, util.IsCode(err, util.CodePhoneAlreadyExists))

	// email is checked first when both collide
	_, err = f.svc.Register(ctx, validRegistration())
	assert.True(t, util.IsCode(err, util.CodeEmailAlreadyExists))
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	f := newAccountFixture(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := validRegistration()
			in.Phone = fmt.Sprintf("+55119999%05d", i)
			_, err := f.svc.Register(context.Background(), in)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case util.IsCode(err, util.CodeEmailAlreadyExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func TestLogin(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	res, err := f.svc.Login(ctx, "JOAO@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	claims, err := f.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID())
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.Equal(t, "+5511999999999", claims.Phone)
	assert.Empty(t, claims.Email)

	_, err = f.svc.Login(ctx, "joao@example.com", "wrong-password")
	assert.True(t, util.IsCode(err, util.CodeUserNotFound))

	_, err = f.svc.Login(ctx, "nobody@example.com", "123456")
	assert.True(t, util.IsCode(err, util.CodeUserNotFound))

	_, err = f.svc.Deactivate(ctx, reg.User.ID)
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "joao@example.com", "123456")
	assert.True(t, util.IsCode(err, util.CodeUserNotFound))
}

func TestDeactivate_InvalidatesIssuedToken(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	key := auth.RouteKey{Method: "GET", Path: "/protected"}
	verdict, err := f.pipeline.Authorize(ctx, key, "Bearer "+reg.Token)
	require.NoError(t, err)
	require.True(t, verdict.Allowed)

	user, err := f.svc.Deactivate(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	verdict, err = f.pipeline.Authorize(ctx, key, "Bearer "+reg.Token)
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, auth.ReasonUserInactive, verdict.Reason)

	require.NoError(t, f.svc.Remove(ctx, reg.User.ID))
	verdict, err = f.pipeline.Authorize(ctx, key, "Bearer "+reg.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.ReasonUserNotFound, verdict.Reason)
}

func TestGetUser_NotFound(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.GetUser(context.Background(), "missing")
	assert.True(t, util.IsCode(err, util.CodeUserNotFound))
	_, err = f.svc.GetProfile(context.Background(), "missing")
	assert.True(t, util.IsCode(err, util.CodeUserNotFound))
	assert.True(t, util.IsCode(f.svc.Remove(context.Background(), "missing"), util.CodeUserNotFound))
	_, err = f.svc.Deactivate(context.Background(), "missing")
	assert.True(t, util.IsCode(err, util.CodeUserNotFound))
}

func TestCreateUser(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.svc.CreateUser(ctx, CreateUserInput{Email: "staff@example.com", Password: "secret1", Name: "Staff"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Empty(t, user.Phone)

	admin, err := f.svc.CreateUser(ctx, CreateUserInput{Email: "boss@example.com", Password: "secret1", Name: "Boss", Role: "ADMIN", Phone: "+5521988887777"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.Equal(t, "+5521988887777", admin.Phone)

	_, err = f.svc.CreateUser(ctx, CreateUserInput{Email: "x@example.com", Password: "secret1", Name: "X", Role: "ROOT"})
	assert.True(t, util.IsCode(err, util.CodeValidationFailed))

	_, err = f.svc.CreateUser(ctx, CreateUserInput{Email: "staff@example.com", Password: "secret1", Name: "Dup"})
	assert.True(t, util.IsCode(err, util.CodeEmailAlreadyExists))

	_, err = f.svc.CreateUser(ctx, CreateUserInput{Email: "y@example.com", Password: "short", Name: "Y"})
	assert.True(t, util.IsCode(err, util.CodePasswordNotValid))

	_, err = f.svc.CreateUser(ctx, CreateUserInput{Email: "", Password: "secret1", Name: "Y"})
	assert.True(t, util.IsCode(err, util.CodeValidationFailed))
}

func TestUpdateUser(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	other, err := f.svc.CreateUser(ctx, CreateUserInput{Email: "other@example.com", Password: "secret1", Name: "Other", Phone: "+5521988887777"})
	require.NoError(t, err)

	name := "  Renamed "
	role := "MASTER"
	active := false
	updated, err := f.svc.UpdateUser(ctx, reg.User.ID, UpdateUserInput{Name: &name, Role: &role, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, domain.RoleMaster, updated.Role)
	assert.False(t, updated.IsActive)

	// the caller's own values do not conflict with itself
	sameEmail := "joao@example.com"
	_, err = f.svc.UpdateUser(ctx, reg.User.ID, UpdateUserInput{Email: &sameEmail})
	require.NoError(t, err)

	takenEmail := "other@example.com"
	_, err = f.svc.UpdateUser(ctx, reg.User.ID, UpdateUserInput{Email: &takenEmail})
	assert.True(t, util.IsCode(err, util.CodeEmailAlreadyExists))

	takenPhone := "+55 21 98888-7777"
	_, err = f.svc.UpdateUser(ctx, reg.User.ID, UpdateUserInput{Phone: &takenPhone})
	assert.True(t, util.IsCode(err, util.CodePhoneAlreadyExists))

	badPhone := "21988887777"
	_, err = f.svc.UpdateUser(ctx, reg.User.ID, UpdateUserInput{Phone: &badPhone})
	assert.True(t, util.IsCode(err, util.CodePhoneNotValid))

	badRole := "GOD"
	_, err = f.svc.UpdateUser(ctx, reg.User.ID, UpdateUserInput{Role: &badRole})
	assert.True(t, util.IsCode(err, util.CodeValidationFailed))

	cleared := ""
	updated, err = f.svc.UpdateUser(ctx, other.ID, UpdateUserInput{Phone: &cleared})
	require.NoError(t, err)
	assert.Empty(t, updated.Phone)

	_, err = f.svc.UpdateUser(ctx, "missing", UpdateUserInput{Name: &name})
	assert.True(t, util.IsCode(err, util.CodeUserNotFound))
}

func TestUpdateUser_FormatCheckedBeforeLookup(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	missing := "00000000-0000-0000-0000-000000000000"

	badPhone := "5511999999999"
	_, err := f.svc.UpdateUser(ctx, missing, UpdateUserInput{Phone: &badPhone})
	assert.True(t, util.IsCode(err, util.CodePhoneNotValid), "got %v", err)

	blank := "   "
	_, err = f.svc.UpdateUser(ctx, missing, UpdateUserInput{Name: &blank})
	assert.True(t, util.IsCode(err, util.CodeValidationFailed), "got %v", err)

	_, err = f.svc.UpdateUser(ctx, missing, UpdateUserInput{Email: &blank})
	assert.True(t, util.IsCode(err, util.CodeValidationFailed), "got %v", err)

	badRole := "ROOT"
	_, err = f.svc.UpdateUser(ctx, missing, UpdateUserInput{Role: &badRole})
	assert.True(t, util.IsCode(err, util.CodeValidationFailed), "got %v", err)

	name := "Valid"
	_, err = f.svc.UpdateUser(ctx, missing, UpdateUserInput{Name: &name})
	assert.True(t, util.IsCode(err, util.CodeUserNotFound), "got %v", err)
}

func TestPasswordChanges(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	require.NoError(t, f.svc.ChangeOwnPassword(ctx, reg.User.Identity(), "new-secret"))
	_, err = f.svc.Login(ctx, "joao@example.com", "new-secret")
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "joao@example.com", "123456")
	assert.True(t, util.IsCode(err, util.CodeUserNotFound))

	require.NoError(t, f.svc.SetPassword(ctx, reg.User.ID, "admin-set"))
	_, err = f.svc.Login(ctx, "joao@example.com", "admin-set")
	require.NoError(t, err)

	assert.True(t, util.IsCode(f.svc.SetPassword(ctx, reg.User.ID, "123"), util.CodePasswordNotValid))
	assert.True(t, util.IsCode(f.svc.SetPassword(ctx, "missing", "123456"), util.CodeUserNotFound))
	assert.True(t, util.IsCode(f.svc.ChangeOwnPassword(ctx, nil, "123456"), util.CodeUnauthorized))
}

func TestListUsers(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	_, err = f.svc.CreateUser(ctx, CreateUserInput{Email: "a@example.com", Password: "secret1", Name: "Alice Admin", Role: "ADMIN"})
	require.NoError(t, err)

	all, err := f.svc.ListUsers(ctx, repository.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	role := domain.RoleAdmin
	admins, err := f.svc.ListUsers(ctx, repository.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "Alice Admin", admins[0].Name)
}

type brokenStore struct {
	*repository.MemoryUserRepository
}

func (brokenStore) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, errors.New("db down")
}

func TestStoreFailuresAreInternal(t *testing.T) {
	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	svc := NewAccountService(AccountDependencies{
		Users:  brokenStore{repository.NewMemoryUserRepository()},
		Hasher: auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens: tokens,
	})

	_, err = svc.Login(context.Background(), "a@example.com", "123456")
	assert.True(t, util.IsCode(err, util.CodeInternal))

	_, err = svc.Register(context.Background(), validRegistration())
	assert.True(t, util.IsCode(err, util.CodeInternal))
}
