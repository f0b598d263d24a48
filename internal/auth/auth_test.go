package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/Keoroanthony/go-storefront/configs"
	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/db/dbtest"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

func TestValidatePassword(t *testing.T) {
	assert.Empty(t, auth.ValidatePassword("correct-horse-42"))
	assert.Contains(t, auth.ValidatePassword("short"), "This password is too short. It must contain at least 8 characters.")
	assert.Contains(t, auth.ValidatePassword("123456789"), "This password is entirely numeric.")
	assert.Contains(t, auth.ValidatePassword("Password"), "This password is too common.")
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse-42")
	require.NoError(t, err)

	assert.NotEqual(t, "correct-horse-42", hash)
	assert.True(t, auth.CheckPassword(hash, "correct-horse-42"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
	assert.False(t, auth.CheckPassword("", "correct-horse-42"))
}

func TestTokenRoundTrip(t *testing.T) {
	require.NoError(t, auth.Init(context.Background(), auth.Settings{JWTSecret: "test-secret", JWTTTL: time.Hour}))

	user := &models.User{ID: 42, Role: models.RoleSeller}
	token, expiresAt, err := auth.IssueToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	id, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = auth.ParseToken(token + "x")
	assert.Error(t, err)
}

func TestInitRejectsEmptySecret(t *testing.T) {
	assert.Error(t, auth.Init(context.Background(), auth.Settings{}))
}

func TestInitRejectsWeakSecretInProduction(t *testing.T) {
	ctx := context.Background()

	assert.Error(t, auth.Init(ctx, auth.Settings{JWTSecret: config.DefaultSecret, Production: true}))
	assert.Error(t, auth.Init(ctx, auth.Settings{JWTSecret: "too-short", Production: true}))
	assert.NoError(t, auth.Init(ctx, auth.Settings{JWTSecret: config.DefaultSecret}))
	require.NoError(t, auth.Init(ctx, auth.Settings{JWTSecret: strings.Repeat("s", config.MinSecretLength), Production: true}))

	token, _, err := auth.IssueToken(&models.User{ID: 7})
	require.NoError(t, err)
	id, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func setupAuthRouter(t *testing.T, loginAs *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(sessions.Sessions(auth.SessionName, cookie.NewStore([]byte("test-secret-key"))))
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": auth.CurrentUser(c).Username})
	})
	r.GET("/admin", auth.RequireAuth(), auth.RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/page", auth.RequireLogin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/login", func(c *gin.Context) {
		require.NoError(t, auth.LogIn(c, loginAs))
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)
	require.NoError(t, auth.Init(context.Background(), auth.Settings{JWTSecret: "test-secret", JWTTTL: time.Hour}))
	router := setupAuthRouter(t, &fx.User)

	t.Run("rejects anonymous callers", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepts a bearer token", func(t *testing.T) {
		token, _, err := auth.IssueToken(&fx.User)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "alice")
	})

	t.Run("accepts a session cookie", func(t *testing.T) {
		login := httptest.NewRecorder()
		router.ServeHTTP(login, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusOK, login.Code)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Cookie", login.Header().Get("Set-Cookie"))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "alice")
	})

	t.Run("rejects non-admins on admin routes", func(t *testing.T) {
		token, _, err := auth.IssueToken(&fx.User)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)

		adminToken, _, err := auth.IssueToken(&fx.Admin)
		require.NoError(t, err)
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("pages redirect to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login/?next=%2Fpage", w.Header().Get("Location"))
	})
}

func TestUpsertOIDCUser(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)

	t.Run("links an existing account by email", func(t *testing.T) {
		user, err := auth.UpsertOIDCUser(conn, auth.OIDCClaims{Sub: "sub-alice", Email: fx.User.Email})
		require.NoError(t, err)
		assert.Equal(t, fx.User.ID, user.ID)
		require.NotNil(t, user.OIDCSubject)
		assert.Equal(t, "sub-alice", *user.OIDCSubject)
	})

	t.Run("creates a customer for a new identity", func(t *testing.T) {
		user, err := auth.UpsertOIDCUser(conn, auth.OIDCClaims{Sub: "sub-new", Email: "new@example.com", PreferredUsername: "newbie", Phone: "+254700000000"})
		require.NoError(t, err)
		assert.Equal(t, "newbie", user.Username)
		assert.Equal(t, "newbie", user.Slug)
		assert.Equal(t, models.RoleCustomer, user.Role)

		again, err := auth.UpsertOIDCUser(conn, auth.OIDCClaims{Sub: "sub-new", Email: "new@example.com"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
	})

	t.Run("requires subject and email", func(t *testing.T) {
		_, err := auth.UpsertOIDCUser(conn, auth.OIDCClaims{Sub: "x"})
		assert.Error(t, err)
	})
}
