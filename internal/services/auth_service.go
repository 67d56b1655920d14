package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hallelx2/legal-ai-backend/internal/config"
	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"github.com/hallelx2/legal-ai-backend/internal/utils"
	"github.com/hallelx2/legal-ai-backend/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)

type Claims struct {
	Email        string `json:"email"`
	TokenVersion int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	Email        string `json:"email"`
}

type RegisterInput struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthService issues bearer tokens. Every token embeds the user's token
// version; bumping the version revokes all outstanding tokens.
type AuthService struct {
	db       *gorm.DB
	security config.SecurityConfig
	logger   *zap.Logger
	metrics  *metrics.MetricsCollector
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, security config.SecurityConfig, logger *zap.Logger, metrics *metrics.MetricsCollector) *AuthService {
	return &AuthService{
		db:       db,
		security: security,
		logger:   logger.With(zap.String("service", "auth_service")),
		metrics:  metrics,
		now:      time.Now,
	}
}

func (as *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := utils.NormalizeEmail(in.Email)
	if !utils.ValidEmail(email) {
		return nil, invalidf("email %q is not valid", in.Email)
	}
	if len(in.Password) < as.security.PasswordMinLength {
		return nil, invalidf("password must be at least %d characters", as.security.PasswordMinLength)
	}
	if in.Password != in.ConfirmPassword {
		return nil, invalidf("passwords do not match")
	}

	var count int64
	if err := as.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hash, err := utils.EncryptPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		ActiveStatus: true,
	}
	if err := as.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	collectMetrics(as.metrics, func(m *metrics.MetricsCollector) { m.IncrementCounter("auth.register", "success") })
	as.logger.Info("User registered", zap.String("user_id", user.ID))
	return user, nil
}

func (as *AuthService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	var user models.User
	err := as.db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(in.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		collectMetrics(as.metrics, func(m *metrics.MetricsCollector) { m.IncrementCounter("auth.login", "failure") })
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := utils.VerifyPassword(user.PasswordHash, in.Password)
	if err != nil || !ok || !user.ActiveStatus {
		as.db.WithContext(ctx).Model(&user).UpdateColumn("failed_attempts", gorm.Expr("failed_attempts + ?", 1))
		collectMetrics(as.metrics, func(m *metrics.MetricsCollector) { m.IncrementCounter("auth.login", "failure") })
		as.logger.Info("Login rejected", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	now := as.now().UTC()
	as.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"last_login":      now,
		"failed_attempts": 0,
	})

	collectMetrics(as.metrics, func(m *metrics.MetricsCollector) { m.IncrementCounter("auth.login", "success") })
	return as.issue(&user)
}

func (as *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := as.parse(refreshToken, as.security.JWTRefreshSecret)
	if err != nil {
		return nil, err
	}
	user, err := as.currentUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return as.issue(user)
}

// Authenticate validates an access token and returns its user.
func (as *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := as.parse(accessToken, as.security.JWTSecret)
	if err != nil {
		return nil, err
	}
	return as.currentUser(ctx, claims)
}

// RevokeAll invalidates every token issued to the user so far.
func (as *AuthService) RevokeAll(ctx context.Context, userID string) error {
	res := as.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundf("user %s", userID)
	}
	as.logger.Info("User tokens revoked", zap.String("user_id", userID))
	return nil
}

func (as *AuthService) issue(user *models.User) (*TokenPair, error) {
	access, err := as.sign(user, as.security.JWTSecret, as.security.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := as.sign(user, as.security.JWTRefreshSecret, as.security.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       user.ID,
		Email:        user.Email,
	}, nil
}

func (as *AuthService) sign(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := as.now()
	claims := Claims{
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (as *AuthService) parse(raw, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return claims, nil
}

func (as *AuthService) currentUser(ctx context.Context, claims *Claims) (*models.User, error) {
	var user models.User
	err := as.db.WithContext(ctx).Where("id = ?", claims.Subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if user.TokenVersion != claims.TokenVersion || !user.ActiveStatus {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
	}
	return &user, nil
}
