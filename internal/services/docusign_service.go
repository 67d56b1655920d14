package services

import (
	"context"
	"errors"
	"time"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"github.com/hallelx2/legal-ai-backend/internal/docusign"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// ESignatureClient is the vendor surface the services use.
type ESignatureClient interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	DefaultAccount(ctx context.Context, accessToken string) (*docusign.Account, error)
	CreateEnvelope(ctx context.Context, accessToken string, account *docusign.Account, envelope docusign.EnvelopeDefinition) (*docusign.EnvelopeSummary, error)
}

type TokenStatus struct {
	UserID    string    `json:"userId"`
	Connected bool      `json:"connected"`
	Expired   bool      `json:"expired"`
	TokenType string    `json:"tokenType,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// DocuSignTokenService stores per-user DocuSign grants. Token secrets are
// sealed with the TokenCipher before they reach the database.
type DocuSignTokenService struct {
	db     *gorm.DB
	client ESignatureClient
	cipher *TokenCipher
	logger *zap.Logger
	now    func() time.Time
}

func NewDocuSignTokenService(db *gorm.DB, client ESignatureClient, tokenCipher *TokenCipher, logger *zap.Logger) *DocuSignTokenService {
	return &DocuSignTokenService{
		db:     db,
		client: client,
		cipher: tokenCipher,
		logger: logger.With(zap.String("service", "docusign_token_service")),
		now:    time.Now,
	}
}

func (ds *DocuSignTokenService) ConsentURL(state string) string {
	return ds.client.AuthCodeURL(state)
}

// Connect exchanges an authorization code and replaces the user's grant.
func (ds *DocuSignTokenService) Connect(ctx context.Context, userID, code string) (*TokenStatus, error) {
	if code == "" {
		return nil, invalidf("authorization code is required")
	}
	token, err := ds.client.Exchange(ctx, code)
	if err != nil {
		ds.logger.Error("DocuSign code exchange failed", zap.String("user_id", userID), zap.Error(err))
		return nil, upstream("docusign token exchange", err)
	}
	return ds.save(ctx, userID, token)
}

// Refresh trades the stored refresh token for a new grant.
func (ds *DocuSignTokenService) Refresh(ctx context.Context, userID string) (*TokenStatus, error) {
	record, err := ds.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := ds.cipher.Decrypt(record.RefreshToken)
	if err != nil || refreshToken == "" {
		return nil, ErrNotConnected
	}

	token, err := ds.client.Refresh(ctx, refreshToken)
	if err != nil {
		ds.logger.Warn("DocuSign token refresh failed", zap.String("user_id", userID), zap.Error(err))
		return nil, upstream("docusign token refresh", err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return ds.save(ctx, userID, token)
}

func (ds *DocuSignTokenService) Status(ctx context.Context, userID string) (*TokenStatus, error) {
	record, err := ds.latest(ctx, userID)
	if errors.Is(err, ErrNotConnected) {
		return &TokenStatus{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return ds.status(record), nil
}

// AccessToken returns a usable access token. An expired grant gets one
// refresh attempt; if that fails the user counts as not connected.
func (ds *DocuSignTokenService) AccessToken(ctx context.Context, userID string) (string, error) {
	record, err := ds.latest(ctx, userID)
	if err != nil {
		return "", err
	}

	if !record.Expired(ds.now()) {
		access, err := ds.cipher.Decrypt(record.AccessToken)
		if err != nil {
			ds.logger.Error("Stored DocuSign token unreadable", zap.String("user_id", userID), zap.Error(err))
			return "", ErrNotConnected
		}
		return access, nil
	}

	if _, err := ds.Refresh(ctx, userID); err != nil {
		ds.logger.Info("DocuSign grant expired and could not be refreshed", zap.String("user_id", userID), zap.Error(err))
		return "", ErrNotConnected
	}
	record, err = ds.latest(ctx, userID)
	if err != nil {
		return "", err
	}
	access, err := ds.cipher.Decrypt(record.AccessToken)
	if err != nil {
		return "", ErrNotConnected
	}
	return access, nil
}

func (ds *DocuSignTokenService) latest(ctx context.Context, userID string) (*models.AuthToken, error) {
	var record models.AuthToken
	err := ds.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (ds *DocuSignTokenService) save(ctx context.Context, userID string, token *oauth2.Token) (*TokenStatus, error) {
	access, err := ds.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := ds.cipher.Encrypt(token.RefreshToken)
	if err != nil {
		return nil, err
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		if seconds, ok := token.Extra("expires_in").(float64); ok {
			expiresAt = ds.now().Add(time.Duration(seconds) * time.Second)
		} else {
			expiresAt = ds.now().Add(time.Hour)
		}
	}

	record := &models.AuthToken{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    token.TokenType,
		ExpiresAt:    expiresAt.UTC(),
	}
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.AuthToken{}).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	ds.logger.Info("DocuSign grant stored", zap.String("user_id", userID), zap.Time("expires_at", record.ExpiresAt))
	return ds.status(record), nil
}

func (ds *DocuSignTokenService) status(record *models.AuthToken) *TokenStatus {
	return &TokenStatus{
		UserID:    record.UserID,
		Connected: true,
		Expired:   record.Expired(ds.now()),
		TokenType: record.TokenType,
		ExpiresAt: record.ExpiresAt,
	}
}
