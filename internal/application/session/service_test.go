package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loan-admin-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockStaffStore struct{ mock.Mock }

func (m *mockStaffStore) Get(ctx context.Context, staffID string) (*domain.Staff, error) {
	args := m.Called(ctx, staffID)
	if s, _ := args.Get(0).(*domain.Staff); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStaffStore) GetByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	args := m.Called(ctx, email)
	if s, _ := args.Get(0).(*domain.Staff); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, oldToken, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, oldToken, newToken, newExpiry).Error(0)
}
func (m *mockSessionStore) SoftDeleteByStaff(ctx context.Context, staffID string) error {
	return m.Called(ctx, staffID).Error(0)
}
func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(staffID, role, sessionID string) (string, error) {
	args := m.Called(staffID, role, sessionID)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newSvc(st *mockStaffStore, ss *mockSessionStore, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		StaffRepo:   st,
		SessionRepo: ss,
		JWTProvider: jwt,
		RefreshTTL:  24 * time.Hour,
	})
}

func staffWithPassword(t *testing.T, password string) *domain.Staff {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.Staff{
		StaffID:        "staff-1",
		OrganisationID: "org-1",
		Email:          "alice@example.com",
		PasswordHash:   string(hash),
		Role:           domain.RoleLoanOfficer,
		Enable:         true,
	}
}

// --- Login ---

func TestLogin_HappyPath(t *testing.T) {
	st, ss, jwt := &mockStaffStore{}, &mockSessionStore{}, &mockJWTSigner{}
	st.On("GetByEmail", mock.Anything, "alice@example.com").Return(staffWithPassword(t, "s3cretpass"), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", "staff-1", "loan_officer", mock.Anything).Return("bearer", nil)

	res, err := newSvc(st, ss, jwt).Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "s3cretpass"})

	require.NoError(t, err)
	assert.Equal(t, "bearer", res.Bearer)
	assert.Len(t, res.RefreshToken, 64)
	assert.Equal(t, "org-1", res.Session.OrganisationID, "session starts in the home organisation")
	assert.False(t, res.Session.ViewAll)
	assert.True(t, res.Session.Enable)
	assert.Equal(t, "staff-1", res.Session.Staff.StaffID)
	ss.AssertExpectations(t)
}

func TestLogin_NormalisesEmail(t *testing.T) {
	st, ss, jwt := &mockStaffStore{}, &mockSessionStore{}, &mockJWTSigner{}
	st.On("GetByEmail", mock.Anything, "alice@example.com").Return(staffWithPassword(t, "s3cretpass"), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", "staff-1", "loan_officer", mock.Anything).Return("bearer", nil)

	res, err := newSvc(st, ss, jwt).Login(context.Background(), LoginRequest{Email: "  Alice@Example.COM ", Password: "s3cretpass"})

	require.NoError(t, err)
	assert.Equal(t, "staff-1", res.Session.StaffID)
	st.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	st := &mockStaffStore{}
	st.On("GetByEmail", mock.Anything, "alice@example.com").Return(staffWithPassword(t, "s3cretpass"), nil)

	_, err := newSvc(st, &mockSessionStore{}, &mockJWTSigner{}).Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "nope"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_UnknownEmail(t *testing.T) {
	st := &mockStaffStore{}
	st.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	_, err := newSvc(st, nil, nil).Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "x"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_DisabledAccount(t *testing.T) {
	st := &mockStaffStore{}
	member := staffWithPassword(t, "s3cretpass")
	member.Enable = false
	st.On("GetByEmail", mock.Anything, "alice@example.com").Return(member, nil)

	_, err := newSvc(st, nil, nil).Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "s3cretpass"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestLogin_StoreErrorPropagates(t *testing.T) {
	st := &mockStaffStore{}
	boom := errors.New("dynamo error")
	st.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := newSvc(st, nil, nil).Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "x"})
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- GetCurrent / Logout ---

func TestGetCurrent_EndedSession(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Get", mock.Anything, "sess-1").Return(&domain.Session{SessionID: "sess-1", Enable: false}, nil)

	_, err := newSvc(&mockStaffStore{}, ss, nil).GetCurrent(context.Background(), "sess-1")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestGetCurrent_AttachesStaff(t *testing.T) {
	st, ss := &mockStaffStore{}, &mockSessionStore{}
	ss.On("Get", mock.Anything, "sess-1").Return(&domain.Session{SessionID: "sess-1", StaffID: "staff-1", Enable: true}, nil)
	st.On("Get", mock.Anything, "staff-1").Return(&domain.Staff{StaffID: "staff-1"}, nil)

	sess, err := newSvc(st, ss, nil).GetCurrent(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", sess.Staff.StaffID)
}

func TestLogout_DisablesSession(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Update", mock.Anything, "sess-1", map[string]interface{}{"enable": false}).Return(nil)

	require.NoError(t, newSvc(nil, ss, nil).Logout(context.Background(), "sess-1"))
	ss.AssertExpectations(t)
}

// --- Refresh ---

func TestRefresh_RotatesToken(t *testing.T) {
	st, ss, jwt := &mockStaffStore{}, &mockSessionStore{}, &mockJWTSigner{}
	ss.On("GetByRefreshToken", mock.Anything, "old").Return(&domain.Session{
		SessionID: "sess-1", StaffID: "staff-1", Enable: true,
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	st.On("Get", mock.Anything, "staff-1").Return(&domain.Staff{StaffID: "staff-1", Role: domain.RoleAdmin, Enable: true}, nil)
	ss.On("RotateRefreshToken", mock.Anything, "sess-1", "old", mock.AnythingOfType("string"), mock.AnythingOfType("int64")).Return(nil)
	jwt.On("Sign", "staff-1", "admin", "sess-1").Return("bearer2", nil)

	bearer, next, err := newSvc(st, ss, jwt).Refresh(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "bearer2", bearer)
	assert.NotEqual(t, "old", next)
	ss.AssertExpectations(t)
}

func TestRefresh_TokenAlreadyRotated(t *testing.T) {
	st, ss, jwt := &mockStaffStore{}, &mockSessionStore{}, &mockJWTSigner{}
	ss.On("GetByRefreshToken", mock.Anything, "old").Return(&domain.Session{
		SessionID: "sess-1", StaffID: "staff-1", Enable: true,
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	st.On("Get", mock.Anything, "staff-1").Return(&domain.Staff{StaffID: "staff-1", Role: domain.RoleAdmin, Enable: true}, nil)
	ss.On("RotateRefreshToken", mock.Anything, "sess-1", "old", mock.Anything, mock.Anything).
		Return(fmt.Errorf("refresh token already used: %w", domain.ErrUnauthorized))

	_, _, err := newSvc(st, ss, jwt).Refresh(context.Background(), "old")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	jwt.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_Expired(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("GetByRefreshToken", mock.Anything, "old").Return(&domain.Session{
		SessionID: "sess-1", Enable: true, RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}, nil)

	_, _, err := newSvc(nil, ss, nil).Refresh(context.Background(), "old")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	ss.AssertNotCalled(t, "RotateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_UnknownToken(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("GetByRefreshToken", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	_, _, err := newSvc(nil, ss, nil).Refresh(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogoutAll_DisablesEverySession(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("SoftDeleteByStaff", mock.Anything, "staff-1").Return(nil)

	require.NoError(t, newSvc(nil, ss, nil).LogoutAll(context.Background(), "staff-1"))
	ss.AssertExpectations(t)
}
