package auth

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"bizadmin/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUsers struct {
	byEmail map[string]domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]domain.User{}}
}

func (m *memoryUsers) Create(_ context.Context, u domain.User) (*domain.User, error) {
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, domain.ErrAlreadyExists
	}
	u.ID = "55555555-5555-5555-5555-555555555555"
	m.byEmail[u.Email] = u
	return &u, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := New(newMemoryUsers(), "secret", time.Hour, nil)

	u, err := svc.Register(ctx, RegisterInput{Name: "Anna", Email: " Anna@Muster.de ", Password: "geheim123"})
	require.NoError(t, err)
	assert.Equal(t, "anna@muster.de", u.Email)
	assert.Equal(t, domain.RoleEmployee, u.Role)
	assert.NotEqual(t, "geheim123", u.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Name: "Anna", Email: "anna@muster.de", Password: "geheim123"})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	logged, token, err := svc.Login(ctx, "ANNA@muster.de", "geheim123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	require.NotEmpty(t, token)

	id, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: u.ID, Name: "Anna", Role: domain.RoleEmployee}, *id)

	_, _, err = svc.Login(ctx, "anna@muster.de", "falsch123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@muster.de", "geheim123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	svc := New(newMemoryUsers(), "secret", time.Hour, nil)
	cases := map[string]RegisterInput{
		"name":     {Email: "a@b.de", Password: "12345678"},
		"email":    {Name: "A", Email: "nope", Password: "12345678"},
		"password": {Name: "A", Email: "a@b.de", Password: "short"},
	}
	for field, in := range cases {
		_, err := svc.Register(context.Background(), in)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, field)
		assert.Equal(t, field, verr.Field)
	}
}

func TestRegister_IgnoresRequestedRole(t *testing.T) {
	svc := New(newMemoryUsers(), "secret", time.Hour, nil)

	var in RegisterInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Eve","email":"eve@b.de","password":"12345678","role":"admin"}`), &in))
	u, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, u.Role)
}

func TestVerify_RejectsBadTokens(t *testing.T) {
	svc := New(newMemoryUsers(), "secret", time.Hour, nil)
	u := domain.User{ID: "55555555-5555-5555-5555-555555555555", Name: "Anna", Role: domain.RoleAdmin}

	other := newTokenManager("other-secret", time.Hour)
	foreign, err := other.Issue(u)
	require.NoError(t, err)
	_, err = svc.Verify(foreign)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := newTokenManager("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(u)
	require.NoError(t, err)
	_, err = svc.Verify(old)
	require.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": u.ID, "exp": time.Now().Add(time.Hour).Unix()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("")
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Verify(strings.Repeat("x", 20))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDisabledSigning(t *testing.T) {
	ctx := context.Background()
	svc := New(newMemoryUsers(), "", time.Hour, nil)
	require.False(t, svc.Enabled())

	_, err := svc.Register(ctx, RegisterInput{Name: "Anna", Email: "anna@muster.de", Password: "geheim123"})
	require.NoError(t, err)
	u, token, err := svc.Login(ctx, "anna@muster.de", "geheim123")
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, "Anna", u.Name)

	_, err = svc.Verify("anything")
	require.ErrorIs(t, err, ErrInvalidToken)
}
