package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLoader struct {
	principals map[string]*Principal
}

func (s *stubLoader) LoadPrincipal(_ context.Context, kind string, id uint) (*Principal, error) {
	p, ok := s.principals[kind]
	if !ok || p.ID != id {
		return nil, ErrPrincipalNotFound
	}
	return p, nil
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)

	signed, err := tokens.Issue(KindUser, 42)
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, KindUser, claims.Kind)
	id, err := claims.PrincipalID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestTokenRejectsUnknownKind(t *testing.T) {
	_, err := NewTokenService("secret", time.Hour).Issue("robot", 1)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenService("secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	signed, err := issuer.Issue(KindClient, 7)
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenWrongSecret(t *testing.T) {
	signed, err := NewTokenService("one", time.Hour).Issue(KindUser, 1)
	require.NoError(t, err)

	_, err = NewTokenService("two", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestGenerateLogin(t *testing.T) {
	login, err := GenerateLogin("  Élodie   Martin ")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^elodie\.martin\.[1-9]\d{3}$`), login)
}

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword(0)
	require.NoError(t, err)
	assert.Len(t, pw, DefaultPasswordLength)
	for _, r := range pw {
		assert.True(t, strings.ContainsRune(passwordAlphabet, r), "unexpected rune %q", r)
	}

	pw, err = GeneratePassword(20)
	require.NoError(t, err)
	assert.Len(t, pw, 20)
}

func newProtectedRouter(tokens *TokenService, loader PrincipalLoader, roles ...string) *gin.Engine {
	r := gin.New()
	group := r.Group("/", AuthMiddleware(tokens, loader, zap.NewNop()))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/me", func(c *gin.Context) {
		p, _ := CurrentPrincipal(c)
		c.JSON(http.StatusOK, p)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	loader := &stubLoader{principals: map[string]*Principal{
		KindUser:   {ID: 1, Kind: KindUser, Role: "employee", Name: "Sami"},
		KindClient: {ID: 9, Kind: KindClient, Role: "client", Name: "Acme"},
	}}
	userToken, _ := tokens.Issue(KindUser, 1)
	clientToken, _ := tokens.Issue(KindClient, 9)
	ghostToken, _ := tokens.Issue(KindUser, 2)

	tests := []struct {
		name   string
		header string
		roles  []string
		want   int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"not bearer", "Basic abc", nil, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", nil, http.StatusUnauthorized},
		{"deactivated user", "Bearer " + ghostToken, nil, http.StatusUnauthorized},
		{"valid user", "Bearer " + userToken, nil, http.StatusOK},
		{"staff route as employee", "Bearer " + userToken, []string{"admin", "employee"}, http.StatusOK},
		{"admin route as employee", "Bearer " + userToken, []string{"admin"}, http.StatusForbidden},
		{"staff route as client", "Bearer " + clientToken, []string{"admin", "employee"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newProtectedRouter(tokens, loader, tt.roles...)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestPrincipalClientScope(t *testing.T) {
	staff := &Principal{ID: 1, Kind: KindUser, Role: "admin"}
	client := &Principal{ID: 5, Kind: KindClient, Role: "client"}

	assert.True(t, staff.CanAccessClient(5))
	assert.True(t, client.CanAccessClient(5))
	assert.False(t, client.CanAccessClient(6))
}

func TestIdentityFromClaims(t *testing.T) {
	id, err := identityFromClaims("sub-1", map[string]interface{}{"email": "a@b.c", "email_verified": true, "name": "A"})
	require.NoError(t, err)
	assert.Equal(t, &GoogleIdentity{Subject: "sub-1", Email: "a@b.c", EmailVerified: true, Name: "A"}, id)

	_, err = identityFromClaims("sub-2", map[string]interface{}{})
	assert.Error(t, err)
}

func TestVerifyOAuthState(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/callback", nil)
	c.Request.AddCookie(&http.Cookie{Name: StateCookieName, Value: "abc"})

	assert.True(t, VerifyOAuthState(c, "abc"))
	assert.False(t, VerifyOAuthState(c, ""))
}
