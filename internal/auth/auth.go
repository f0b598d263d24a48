package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	config "github.com/Keoroanthony/go-storefront/configs"
	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

const (
	SessionName    = "gosess"
	SessionUserKey = "user_id"
	ContextUserKey = "user"

	sessionStateKey = "oidc_state"
	tokenIssuer     = "go-storefront"
)

type Settings struct {
	JWTSecret string
	JWTTTL    time.Duration
	OIDC      config.OIDCConfig

	// Production refuses the development secret and short secrets.
	Production bool
}

var (
	settings = Settings{JWTSecret: config.DefaultSecret, JWTTTL: 24 * time.Hour}

	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
)

// Init installs token settings and, when configured, discovers the OIDC provider.
func Init(ctx context.Context, s Settings) error {
	if s.JWTSecret == "" {
		return errors.New("jwt secret must not be empty")
	}
	if s.Production {
		if err := config.CheckSecret("JWT_SECRET", s.JWTSecret); err != nil {
			return err
		}
	}
	if s.JWTTTL <= 0 {
		s.JWTTTL = 24 * time.Hour
	}
	settings = s

	if !s.OIDC.Enabled() {
		zap.L().Info("OIDC login disabled")
		return nil
	}

	var err error
	provider, err = oidc.NewProvider(ctx, s.OIDC.Issuer)
	if err != nil {
		return fmt.Errorf("OIDC provider init: %w", err)
	}

	verifier = provider.Verifier(&oidc.Config{ClientID: s.OIDC.ClientID})

	oauth2Config = &oauth2.Config{
		ClientID:     s.OIDC.ClientID,
		ClientSecret: s.OIDC.ClientSecret,
		RedirectURL:  s.OIDC.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "phone"},
	}
	return nil
}

// LogIn binds user to the current session.
func LogIn(c *gin.Context, user *models.User) error {
	sess := sessions.Default(c)
	sess.Set(SessionUserKey, user.ID)
	return sess.Save()
}

func LogOut(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Clear()
	return sess.Save()
}

// CurrentUser returns the user resolved by the auth middleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// resolveUser finds the caller from the session cookie or a bearer token.
func resolveUser(c *gin.Context) (*models.User, bool) {
	var userID uint

	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		id, err := ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return nil, false
		}
		userID = id
	} else {
		id, ok := sessions.Default(c).Get(SessionUserKey).(uint)
		if !ok || id == 0 {
			return nil, false
		}
		userID = id
	}

	var user models.User
	if err := db.DB.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// RequireAuth ensures the caller is logged in and injects *models.User into the context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireLogin is the page counterpart of RequireAuth: it redirects to the login form.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveUser(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login/?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// OptionalUser injects the user when one is logged in and never rejects.
func OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := resolveUser(c); ok {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// GET /auth/oidc/login
func Login(c *gin.Context) {
	if oauth2Config == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "single sign-on is not configured"})
		return
	}

	state := uuid.NewString()
	sess := sessions.Default(c)
	sess.Set(sessionStateKey, state)
	if err := sess.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	c.Redirect(http.StatusFound, oauth2Config.AuthCodeURL(state))
}

// GET /auth/oidc/callback
func Callback(c *gin.Context) {
	if oauth2Config == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "single sign-on is not configured"})
		return
	}

	sess := sessions.Default(c)
	expected, _ := sess.Get(sessionStateKey).(string)
	if expected == "" || c.Query("state") != expected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
		return
	}
	sess.Delete(sessionStateKey)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code missing"})
		return
	}

	ctx := c.Request.Context()
	oauth2Token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token exchange failed"})
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no id_token in token response"})
		return
	}

	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token verification failed"})
		return
	}

	var claims OIDCClaims
	if err := idToken.Claims(&claims); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "claims parse error"})
		return
	}

	user, err := UpsertOIDCUser(db.DB.WithContext(ctx), claims)
	if err != nil {
		zap.L().Error("OIDC user upsert failed", zap.String("subject", claims.Sub), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store user"})
		return
	}

	if err := LogIn(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged in", "user": user})
}

type OIDCClaims struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Phone             string `json:"phone_number"`
}

// UpsertOIDCUser links the identity to an existing account by subject or
// email, creating a customer account when neither matches.
func UpsertOIDCUser(tx *gorm.DB, claims OIDCClaims) (*models.User, error) {
	if claims.Sub == "" || claims.Email == "" {
		return nil, errors.New("subject and email claims are required")
	}

	var user models.User
	err := tx.Where("oidc_subject = ?", claims.Sub).Or("email = ?", claims.Email).First(&user).Error
	switch {
	case err == nil:
		if user.OIDCSubject == nil {
			user.OIDCSubject = &claims.Sub
			if err := tx.Save(&user).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Email
	}
	user = models.User{
		Username:    username,
		Name:        claims.Name,
		Email:       claims.Email,
		Role:        models.RoleCustomer,
		OIDCSubject: &claims.Sub,
	}
	if claims.Phone != "" {
		user.Phone = &claims.Phone
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
