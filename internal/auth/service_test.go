// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dramos02/employee-directory/internal/config"
	"github.com/Dramos02/employee-directory/internal/core"
)

type fakeTokenStore struct {
	mu           sync.Mutex
	refresh      map[string]*RefreshToken
	action       map[string]*ActionToken
	revokedAll   []string
	familyRevoke []string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		refresh: make(map[string]*RefreshToken),
		action:  make(map[string]*ActionToken),
	}
}

func (f *fakeTokenStore) Create(_ context.Context, token *RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	f.refresh[token.ID] = &cp
	return nil
}

func (f *fakeTokenStore) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.refresh {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeTokenStore) FindByID(_ context.Context, id string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokenStore) MarkAsUsed(_ context.Context, id, replacedByID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	t.IsUsed = true
	t.UsedAt = &now
	t.ReplacedByID = &replacedByID
	return nil
}

func (f *fakeTokenStore) RevokeByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (f *fakeTokenStore) RevokeByFamilyID(_ context.Context, familyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.familyRevoke = append(f.familyRevoke, familyID)
	now := time.Now()
	for _, t := range f.refresh {
		if t.FamilyID == familyID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokenStore) RevokeAllForEmployee(_ context.Context, employeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokedAll = append(f.revokedAll, employeeID)
	now := time.Now()
	for _, t := range f.refresh {
		if t.EmployeeID == employeeID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokenStore) GetActiveSessionsForEmployee(
	_ context.Context,
	employeeID string,
) ([]RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RefreshToken
	for _, t := range f.refresh {
		if t.EmployeeID == employeeID && t.IsValid() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeTokenStore) CreateActionToken(_ context.Context, token *ActionToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	f.action[token.ID] = &cp
	return nil
}

func (f *fakeTokenStore) FindActionTokenByHash(
	_ context.Context,
	hash, purpose string,
) (*ActionToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.action {
		if t.TokenHash == hash && t.Purpose == purpose {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeTokenStore) ConsumeActionToken(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.action[id]
	if !ok || t.UsedAt != nil {
		return core.ErrNotFound
	}
	now := time.Now()
	t.UsedAt = &now
	return nil
}

type fakeEmployees struct {
	mu      sync.Mutex
	byID    map[string]*EmployeeInfo
	byEmail map[string]*EmployeeInfo
}

func newFakeEmployees(employees ...*EmployeeInfo) *fakeEmployees {
	f := &fakeEmployees{
		byID:    make(map[string]*EmployeeInfo),
		byEmail: make(map[string]*EmployeeInfo),
	}
	for _, emp := range employees {
		f.byID[emp.ID] = emp
		f.byEmail[emp.Email] = emp
	}
	return f
}

func (f *fakeEmployees) GetByEmail(_ context.Context, email string) (*EmployeeInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.byEmail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *emp
	return &cp, nil
}

func (f *fakeEmployees) GetByID(_ context.Context, id string) (*EmployeeInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *emp
	return &cp, nil
}

func (f *fakeEmployees) Create(
	_ context.Context,
	email, passwordHash, fullName, phone string,
) (*EmployeeInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[email]; exists {
		return nil, core.ErrDuplicateKey
	}
	emp := &EmployeeInfo{
		ID:           "emp-" + email,
		Email:        email,
		FullName:     fullName,
		Phone:        phone,
		PasswordHash: passwordHash,
		Role:         "user",
	}
	f.byID[emp.ID] = emp
	f.byEmail[email] = emp
	cp := *emp
	return &cp, nil
}

func (f *fakeEmployees) IncrementTokenVersion(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	emp.TokenVersion++
	return nil
}

func (f *fakeEmployees) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	emp.PasswordHash = hash
	return nil
}

func (f *fakeEmployees) MarkEmailVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	emp.EmailVerified = true
	return nil
}

type nopMailer struct{}

func (nopMailer) SendVerificationMail(context.Context, string, string, string) error {
	return nil
}

func (nopMailer) SendPasswordResetMail(context.Context, string, string, string) error {
	return nil
}

func testJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(privatePath, publicPath))

	manager, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     privatePath,
		PublicKeyPath:      publicPath,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 7 * 24 * time.Hour,
		Issuer:             "employee-directory",
		Audience:           "employee-directory-api",
	})
	require.NoError(t, err)
	return manager
}

func newTestService(
	t *testing.T,
	store *fakeTokenStore,
	employees *fakeEmployees,
) *Service {
	t.Helper()

	return NewService(
		store,
		testJWTManager(t),
		employees,
		nopMailer{},
		nil,
		config.TokensConfig{
			VerifyEmailExpire:   24 * time.Hour,
			PasswordResetExpire: time.Hour,
		},
		slog.New(slog.DiscardHandler),
	)
}

func verifiedEmployee(t *testing.T, role string) *EmployeeInfo {
	t.Helper()

	hash, err := core.HashPassword("secret1")
	require.NoError(t, err)

	return &EmployeeInfo{
		ID:            "emp-1",
		Email:         "juan@example.com",
		FullName:      "Juan Dela Cruz",
		Phone:         "09171234567",
		PasswordHash:  hash,
		Role:          role,
		EmailVerified: true,
	}
}

func TestLoginSuccessRoutesByRole(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		role        string
		wantLanding string
	}{
		{name: "standard user", role: "user", wantLanding: LandingStandard},
		{name: "admin", role: "admin", wantLanding: LandingAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emp := verifiedEmployee(t, tt.role)
			svc := newTestService(t, newFakeTokenStore(), newFakeEmployees(emp))

			resp, err := svc.Login(ctx, LoginRequest{
				Email:    emp.Email,
				Password: "secret1",
			}, "test-agent", "127.0.0.1")
			require.NoError(t, err)

			assert.Equal(t, tt.wantLanding, resp.Landing)
			assert.NotEmpty(t, resp.Tokens.AccessToken)
			assert.NotEmpty(t, resp.Tokens.RefreshToken)
			assert.Equal(t, "Bearer", resp.Tokens.TokenType)
		})
	}
}

func TestLoginUnverifiedHasNoLanding(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	emp.EmailVerified = false
	svc := newTestService(t, newFakeTokenStore(), newFakeEmployees(emp))

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    emp.Email,
		Password: "secret1",
	}, "", "")
	require.NoError(t, err)

	assert.Empty(t, resp.Landing)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
}

func TestLoginUnassignedRoleSurfaces(t *testing.T) {
	emp := verifiedEmployee(t, "")
	store := newFakeTokenStore()
	svc := newTestService(t, store, newFakeEmployees(emp))

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    emp.Email,
		Password: "secret1",
	}, "", "")
	require.ErrorIs(t, err, ErrRoleUnassigned)

	// The failed login must not leave a session behind that would show
	// up in the employee's session list.
	assert.Empty(t, store.refresh)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	svc := newTestService(t, newFakeTokenStore(), newFakeEmployees(emp))
	ctx := context.Background()

	_, wrongPassword := svc.Login(ctx, LoginRequest{
		Email:    emp.Email,
		Password: "not the password",
	}, "", "")
	_, unknownAccount := svc.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret1",
	}, "", "")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownAccount, ErrInvalidCredentials)
	// Same sentinel, same message: a caller cannot tell which input
	// was wrong.
	assert.Equal(t, wrongPassword.Error(), unknownAccount.Error())
}

func TestRegisterCreatesUnverifiedStandardUser(t *testing.T) {
	store := newFakeTokenStore()
	employees := newFakeEmployees()
	svc := newTestService(t, store, employees)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FullName:        "Juan Dela Cruz",
		Email:           "juan@example.com",
		Phone:           "09171234567",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}, "", "")
	require.NoError(t, err)

	assert.Equal(t, "user", resp.Employee.Role)
	assert.False(t, resp.Employee.EmailVerified)
	assert.Empty(t, resp.Landing)

	// A verification token was minted before the response returned.
	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.action, 1)
	for _, tok := range store.action {
		assert.Equal(t, PurposeVerifyEmail, tok.Purpose)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	svc := newTestService(t, newFakeTokenStore(), newFakeEmployees(emp))

	_, err := svc.Register(context.Background(), RegisterRequest{
		FullName:        "Someone Else",
		Email:           emp.Email,
		Phone:           "09170000000",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}, "", "")
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestRefreshRotatesToken(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	store := newFakeTokenStore()
	svc := newTestService(t, store, newFakeEmployees(emp))
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{
		Email:    emp.Email,
		Password: "secret1",
	}, "", "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)
	assert.Equal(t, LandingStandard, refreshed.Landing)

	// Replaying the rotated-out token revokes the whole family.
	_, err = svc.Refresh(ctx, login.Tokens.RefreshToken, "", "")
	require.ErrorIs(t, err, ErrTokenReuse)
	assert.Len(t, store.familyRevoke, 1)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc := newTestService(t, newFakeTokenStore(), newFakeEmployees())

	_, err := svc.Refresh(context.Background(), "bogus-token", "", "")
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyEmailConsumesToken(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	emp.EmailVerified = false
	store := newFakeTokenStore()
	employees := newFakeEmployees(emp)
	svc := newTestService(t, store, employees)
	ctx := context.Background()

	token, err := core.GenerateActionToken()
	require.NoError(t, err)
	require.NoError(t, store.CreateActionToken(ctx, &ActionToken{
		ID:         "at-1",
		EmployeeID: emp.ID,
		TokenHash:  core.HashToken(token),
		Purpose:    PurposeVerifyEmail,
		ExpiresAt:  time.Now().Add(time.Hour),
	}))

	require.NoError(t, svc.VerifyEmail(ctx, token))

	got, err := employees.GetByID(ctx, emp.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)

	// Single use: the same link cannot verify twice.
	err = svc.VerifyEmail(ctx, token)
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	store := newFakeTokenStore()
	svc := newTestService(t, store, newFakeEmployees(emp))
	ctx := context.Background()

	token, err := core.GenerateActionToken()
	require.NoError(t, err)
	require.NoError(t, store.CreateActionToken(ctx, &ActionToken{
		ID:         "at-1",
		EmployeeID: emp.ID,
		TokenHash:  core.HashToken(token),
		Purpose:    PurposeVerifyEmail,
		ExpiresAt:  time.Now().Add(-time.Minute),
	}))

	err = svc.VerifyEmail(ctx, token)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	store := newFakeTokenStore()
	employees := newFakeEmployees(emp)
	svc := newTestService(t, store, employees)
	ctx := context.Background()

	token, err := core.GenerateActionToken()
	require.NoError(t, err)
	require.NoError(t, store.CreateActionToken(ctx, &ActionToken{
		ID:         "at-1",
		EmployeeID: emp.ID,
		TokenHash:  core.HashToken(token),
		Purpose:    PurposePasswordReset,
		ExpiresAt:  time.Now().Add(time.Hour),
	}))

	oldHash := emp.PasswordHash
	require.NoError(t, svc.ResetPassword(ctx, token, "brand-new-pass"))

	got, err := employees.GetByID(ctx, emp.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, got.PasswordHash)
	assert.Equal(t, 1, got.TokenVersion)
	assert.Contains(t, store.revokedAll, emp.ID)
}

func TestResetPasswordRejectsWrongPurpose(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	store := newFakeTokenStore()
	svc := newTestService(t, store, newFakeEmployees(emp))
	ctx := context.Background()

	token, err := core.GenerateActionToken()
	require.NoError(t, err)
	require.NoError(t, store.CreateActionToken(ctx, &ActionToken{
		ID:         "at-1",
		EmployeeID: emp.ID,
		TokenHash:  core.HashToken(token),
		Purpose:    PurposeVerifyEmail,
		ExpiresAt:  time.Now().Add(time.Hour),
	}))

	err = svc.ResetPassword(ctx, token, "brand-new-pass")
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestRequestPasswordResetUnknownAddressIsSilent(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(t, store, newFakeEmployees())

	// No error, no token: nothing distinguishes an unknown address
	// from a known one at the API boundary.
	svc.RequestPasswordReset(context.Background(), "nobody@example.com")

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.action)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	svc := newTestService(t, newFakeTokenStore(), newFakeEmployees(emp))

	err := svc.ChangePassword(context.Background(), emp.ID, "wrong", "new-secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), emp.ID, "secret1", "new-secret")
	require.NoError(t, err)
}

func TestLogoutIsIdempotent(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	svc := newTestService(t, newFakeTokenStore(), newFakeEmployees(emp))

	err := svc.Logout(context.Background(), "never-issued", emp.ID)
	require.NoError(t, err)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	emp := verifiedEmployee(t, "user")
	store := newFakeTokenStore()
	svc := newTestService(t, store, newFakeEmployees(emp))
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{
		Email:    emp.Email,
		Password: "secret1",
	}, "", "")
	require.NoError(t, err)

	err = svc.Logout(ctx, login.Tokens.RefreshToken, "someone-else")
	require.ErrorIs(t, err, core.ErrForbidden)
}
