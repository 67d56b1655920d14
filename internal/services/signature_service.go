package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"github.com/hallelx2/legal-ai-backend/internal/docusign"
	"github.com/hallelx2/legal-ai-backend/internal/store"
	"github.com/hallelx2/legal-ai-backend/pkg/metrics"
	"go.uber.org/zap"
)

type SignatureResult struct {
	AgreementID string `json:"agreementId"`
	EnvelopeID  string `json:"envelopeId"`
	Status      string `json:"status"`
}

type SignatureService struct {
	agreements *store.AgreementStore
	tokens     *DocuSignTokenService
	client     ESignatureClient
	tempDir    string
	logger     *zap.Logger
	metrics    *metrics.MetricsCollector
}

func NewSignatureService(
	agreements *store.AgreementStore,
	tokens *DocuSignTokenService,
	client ESignatureClient,
	tempDir string,
	logger *zap.Logger,
	metrics *metrics.MetricsCollector,
) *SignatureService {
	return &SignatureService{
		agreements: agreements,
		tokens:     tokens,
		client:     client,
		tempDir:    tempDir,
		logger:     logger.With(zap.String("service", "signature_service")),
		metrics:    metrics,
	}
}

// SendForSignature routes a stored agreement to DocuSign. The agreement
// status only changes once the envelope has been accepted.
func (ss *SignatureService) SendForSignature(ctx context.Context, userID, agreementID string) (result *SignatureResult, err error) {
	defer func() {
		collectMetrics(ss.metrics, func(m *metrics.MetricsCollector) { m.RecordDispatch(err) })
	}()

	agreement, err := ss.agreements.GetOwned(ctx, agreementID, userID)
	if err != nil {
		return nil, storeErr(err, "agreement "+agreementID)
	}

	accessToken, err := ss.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	path, err := ss.writeTempFile(agreement)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			ss.logger.Warn("Failed to clean up temporary file", zap.String("path", path), zap.Error(rmErr))
		}
	}()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read temporary file: %w", err)
	}

	account, err := ss.client.DefaultAccount(ctx, accessToken)
	if err != nil {
		ss.logger.Error("DocuSign account lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, upstream("docusign account lookup", err)
	}

	envelope := docusign.BuildEnvelope(agreement.Name, content, agreement.SignatureLocations.Data())
	summary, err := ss.client.CreateEnvelope(ctx, accessToken, account, envelope)
	if err != nil {
		ss.logger.Error("DocuSign envelope creation failed", zap.String("agreement_id", agreementID), zap.Error(err))
		return nil, upstream("docusign envelope", err)
	}

	if err := ss.agreements.RecordEnvelope(ctx, agreement.ID, summary.EnvelopeID, summary.Status, models.AgreementSentForSignature); err != nil {
		return nil, storeErr(err, "agreement "+agreementID)
	}
	collectMetrics(ss.metrics, func(m *metrics.MetricsCollector) {
		m.RecordAgreementStatus(string(models.AgreementSentForSignature))
	})

	ss.logger.Info("Agreement sent for signature",
		zap.String("agreement_id", agreement.ID),
		zap.String("envelope_id", summary.EnvelopeID),
		zap.Int("signers", len(envelope.Recipients.Signers)),
	)
	return &SignatureResult{AgreementID: agreement.ID, EnvelopeID: summary.EnvelopeID, Status: summary.Status}, nil
}

func (ss *SignatureService) writeTempFile(agreement *models.Agreement) (string, error) {
	if err := os.MkdirAll(ss.tempDir, 0o750); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(ss.tempDir, "agreement-"+agreement.ID+".html")
	if err := os.WriteFile(path, []byte(agreement.HTMLContent), 0o600); err != nil {
		return "", fmt.Errorf("write temporary file: %w", err)
	}
	return path, nil
}
