package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/loan-admin-api/internal/application/verification"
	"github.com/loan-admin-api/internal/config"
	"github.com/loan-admin-api/internal/domain"
	jwtinfra "github.com/loan-admin-api/internal/infrastructure/jwt"
	"github.com/loan-admin-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- in-memory fakes ---

type fakeDB struct {
	mu       sync.Mutex
	staff    map[string]domain.Staff
	sessions map[string]domain.Session
	orgs     map[string]domain.Organisation
	plans    map[string]domain.SubscriptionPlan
	roles    map[domain.Role]domain.RoleDefinition
	failGet  bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		staff:    map[string]domain.Staff{},
		sessions: map[string]domain.Session{},
		orgs:     map[string]domain.Organisation{},
		plans:    map[string]domain.SubscriptionPlan{},
		roles:    map[domain.Role]domain.RoleDefinition{},
	}
}

type staffRepo struct{ db *fakeDB }

func (r staffRepo) Put(_ context.Context, s *domain.Staff) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.staff[s.StaffID] = *s
	return nil
}
func (r staffRepo) Get(_ context.Context, id string) (*domain.Staff, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.staff[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}
func (r staffRepo) GetByEmail(_ context.Context, email string) (*domain.Staff, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.staff {
		if s.Email == email {
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (r staffRepo) ListByOrganisation(_ context.Context, orgID string) ([]domain.Staff, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Staff
	for _, s := range r.db.staff {
		if s.OrganisationID == orgID {
			out = append(out, s)
		}
	}
	return out, nil
}
func (r staffRepo) Scan(_ context.Context) ([]domain.Staff, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Staff
	for _, s := range r.db.staff {
		out = append(out, s)
	}
	return out, nil
}
func (r staffRepo) Update(_ context.Context, id string, updates map[string]interface{}) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := r.db.staff[id]
	if v, ok := updates["email_verified"].(bool); ok {
		s.EmailVerified = v
	}
	if v, ok := updates["phone_verified"].(bool); ok {
		s.PhoneVerified = v
	}
	r.db.staff[id] = s
	return nil
}

type sessionRepo struct{ db *fakeDB }

func (r sessionRepo) Put(_ context.Context, s *domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.sessions[s.SessionID] = *s
	return nil
}
func (r sessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failGet {
		return nil, errors.New("table unavailable")
	}
	s, ok := r.db.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}
func (r sessionRepo) GetByRefreshToken(_ context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.sessions {
		if s.RefreshToken == token {
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (r sessionRepo) RotateRefreshToken(_ context.Context, id, old, token string, expiry int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[id]
	if !ok || !s.Enable || s.RefreshToken != old {
		return domain.ErrUnauthorized
	}
	s.RefreshToken, s.RefreshExpiresAt = token, expiry
	r.db.sessions[id] = s
	return nil
}
func (r sessionRepo) Update(_ context.Context, id string, updates map[string]interface{}) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := r.db.sessions[id]
	if v, ok := updates["enable"].(bool); ok {
		s.Enable = v
	}
	if v, ok := updates["view_all"].(bool); ok {
		s.ViewAll = v
	}
	if v, ok := updates["organisation_id"].(string); ok {
		s.OrganisationID = v
	}
	r.db.sessions[id] = s
	return nil
}
func (r sessionRepo) SoftDeleteByStaff(_ context.Context, staffID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, s := range r.db.sessions {
		if s.StaffID == staffID {
			s.Enable = false
			r.db.sessions[id] = s
		}
	}
	return nil
}

type orgRepo struct{ db *fakeDB }

func (r orgRepo) Put(_ context.Context, o *domain.Organisation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.orgs[o.OrganisationID] = *o
	return nil
}
func (r orgRepo) Get(_ context.Context, id string) (*domain.Organisation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}
func (r orgRepo) Scan(_ context.Context) ([]domain.Organisation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Organisation
	for _, o := range r.db.orgs {
		out = append(out, o)
	}
	return out, nil
}

type planRepo struct{ db *fakeDB }

func (r planRepo) Put(_ context.Context, p *domain.SubscriptionPlan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.plans[p.PlanType] = *p
	return nil
}
func (r planRepo) Get(_ context.Context, planType string) (*domain.SubscriptionPlan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.plans[planType]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}
func (r planRepo) Scan(_ context.Context) ([]domain.SubscriptionPlan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.SubscriptionPlan
	for _, p := range r.db.plans {
		out = append(out, p)
	}
	return out, nil
}

type roleRepo struct{ db *fakeDB }

func (r roleRepo) Put(_ context.Context, def *domain.RoleDefinition) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.roles[def.Role] = *def
	return nil
}
func (r roleRepo) Get(_ context.Context, role domain.Role) (*domain.RoleDefinition, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	def, ok := r.db.roles[role]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &def, nil
}
func (r roleRepo) Scan(_ context.Context) ([]domain.RoleDefinition, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.RoleDefinition
	for _, def := range r.db.roles {
		out = append(out, def)
	}
	return out, nil
}

type captureMailer struct {
	mu   sync.Mutex
	last string
}

func (m *captureMailer) SendEmail(_, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = body
	return nil
}

var codePattern = regexp.MustCompile(`code is (\d{6})`)

func (m *captureMailer) code(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	match := codePattern.FindStringSubmatch(m.last)
	require.Len(t, match, 2, "no code in %q", m.last)
	return match[1]
}

// --- harness ---

type harness struct {
	t      *testing.T
	db     *fakeDB
	mailer *captureMailer
	srv    http.Handler
}

func newProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	p, err := jwtinfra.NewProviderFromPEM(
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
		time.Hour,
	)
	require.NoError(t, err)
	return p
}

func newHarness(t *testing.T, role domain.Role, features ...domain.FeatureKey) *harness {
	t.Helper()
	db := newFakeDB()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	db.plans["basic"] = domain.SubscriptionPlan{PlanType: "basic", Name: "Basic", IsActive: true, Features: features}
	db.orgs["org-1"] = domain.Organisation{OrganisationID: "org-1", Name: "Acme Lending", SubscriptionPlanType: "basic", Enable: true}
	db.orgs["org-2"] = domain.Organisation{OrganisationID: "org-2", Name: "Other", SubscriptionPlanType: "basic", Enable: true}
	db.staff["s1"] = domain.Staff{StaffID: "s1", OrganisationID: "org-1", Email: "alice@example.com",
		PasswordHash: string(hash), Role: role, Enable: true}
	db.staff["s2"] = domain.Staff{StaffID: "s2", OrganisationID: "org-2", Email: "bob@example.com", Role: domain.RoleViewer, Enable: true}

	mailer := &captureMailer{}
	h := &harness{t: t, db: db, mailer: mailer}
	h.srv = NewRouter(&config.Config{RefreshTokenExpiryDays: 1, VerificationLinkBaseURL: "https://app.test/verify"}, &Deps{
		StaffRepo:        staffRepo{db},
		SessionRepo:      sessionRepo{db},
		OrganisationRepo: orgRepo{db},
		PlanRepo:         planRepo{db},
		RoleRepo:         roleRepo{db},
		Verifications:    verification.NewEngine(memory.NewVerificationStore()),
		Mailer:           mailer,
		JWTProvider:      newProvider(t),
	})
	return h
}

func (h *harness) do(method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.srv.ServeHTTP(rr, req)
	return rr
}

func (h *harness) login() string {
	h.t.Helper()
	rr := h.do(http.MethodPost, "/v1/sessions/login", "", map[string]string{"email": "alice@example.com", "password": "correct-horse"})
	require.Equal(h.t, http.StatusOK, rr.Code, rr.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(h.t, json.NewDecoder(rr.Body).Decode(&out))
	return out.AccessToken
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out.Error
}

// --- tests ---

func TestRouter_RequiresBearer(t *testing.T) {
	h := newHarness(t, domain.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/tenancy", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/health-check/ping", "", nil).Code)
}

func TestRouter_TenantScopedStaffList(t *testing.T) {
	h := newHarness(t, domain.RoleAdmin, domain.FeatureStaffManagement)
	bearer := h.login()

	rr := h.do(http.MethodGet, "/v1/staff", bearer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Data []domain.Staff `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "s1", list.Data[0].StaffID)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/v1/staff/s2", bearer, nil).Code)
}

func TestRouter_FeatureGate(t *testing.T) {
	h := newHarness(t, domain.RoleAdmin)
	rr := h.do(http.MethodGet, "/v1/staff", h.login(), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "feature not available", errorOf(t, rr))
}

func TestRouter_SuperAdminOnlyRoutes(t *testing.T) {
	h := newHarness(t, domain.RoleAdmin, domain.FeatureStaffManagement)
	bearer := h.login()

	rr := h.do(http.MethodGet, "/v1/plans", bearer, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "access denied", errorOf(t, rr))
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, "/v1/tenancy/view-all", bearer, map[string]bool{"enabled": true}).Code)
}

func TestRouter_SuperAdminViewAll(t *testing.T) {
	h := newHarness(t, domain.RoleSuperAdmin, domain.FeatureStaffManagement)
	bearer := h.login()

	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/v1/tenancy/view-all", bearer, map[string]bool{"enabled": true}).Code)
	// Persisted on the session, so the next request sees every organisation.
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/staff/s2", bearer, nil).Code)

	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/v1/tenancy/organisation", bearer, map[string]string{"organisation_id": "org-2"}).Code)
	rr := h.do(http.MethodGet, "/v1/tenancy", bearer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var snap struct {
		ViewAll bool `json:"view_all"`
		Filter  struct {
			OrganisationID string `json:"organisation_id"`
		} `json:"filter"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&snap))
	assert.False(t, snap.ViewAll)
	assert.Equal(t, "org-2", snap.Filter.OrganisationID)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/v1/staff/s1", bearer, nil).Code)
}

func TestRouter_EmailVerificationFlow(t *testing.T) {
	h := newHarness(t, domain.RoleManager)
	bearer := h.login()

	require.Equal(t, http.StatusAccepted, h.do(http.MethodPost, "/v1/verifications/email/request", bearer, nil).Code)
	code := h.mailer.code(t)
	wrong := fmt.Sprintf("%06d", (mustAtoi(t, code)+1)%1000000)

	rr := h.do(http.MethodPost, "/v1/verifications/email/validate-code", bearer, map[string]string{"code": wrong})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid or expired code", errorOf(t, rr))

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/v1/verifications/email/validate-code", bearer, map[string]string{"code": code}).Code)
	// Single use.
	rr = h.do(http.MethodPost, "/v1/verifications/email/validate-code", bearer, map[string]string{"code": code})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid or expired code", errorOf(t, rr))

	rr = h.do(http.MethodGet, "/v1/verifications/email/status", bearer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"verified":true}`, rr.Body.String())
	assert.True(t, h.db.staff["s1"].EmailVerified)
}

func TestRouter_AccessDecision(t *testing.T) {
	h := newHarness(t, domain.RoleLoanOfficer, domain.FeatureLoans)
	bearer := h.login()

	rr := h.do(http.MethodGet, "/v1/access/decision?features=loans&roles=loan_officer", bearer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"decision":"ALLOW"}`, rr.Body.String())

	rr = h.do(http.MethodGet, "/v1/access/decision?features=reports", bearer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"decision":"DENY"}`, rr.Body.String())
}

func TestRouter_ResolverFailureIs503(t *testing.T) {
	h := newHarness(t, domain.RoleAdmin)
	bearer := h.login()

	h.db.mu.Lock()
	h.db.failGet = true
	h.db.mu.Unlock()
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/v1/tenancy", bearer, nil).Code)
}

func TestRouter_LogoutEndsSession(t *testing.T) {
	h := newHarness(t, domain.RoleAdmin)
	bearer := h.login()

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/v1/sessions/logout", bearer, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/tenancy", bearer, nil).Code)
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	require.NoError(t, err)
	return n
}
