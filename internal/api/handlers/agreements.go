package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hallelx2/legal-ai-backend/internal/services"
	"go.uber.org/zap"
)

type AgreementHandler struct {
	agreements *services.AgreementService
	signatures *services.SignatureService
	logger     *zap.Logger
}

func NewAgreementHandler(agreements *services.AgreementService, signatures *services.SignatureService, logger *zap.Logger) *AgreementHandler {
	return &AgreementHandler{
		agreements: agreements,
		signatures: signatures,
		logger:     logger.With(zap.String("handler", "agreement")),
	}
}

func (ah *AgreementHandler) Generate(c *gin.Context) {
	var in services.GenerateAgreementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid agreement payload: "+err.Error())
		return
	}

	agreement, err := ah.agreements.GenerateAgreement(c.Request.Context(), in, currentUserID(c))
	if err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.JSON(http.StatusCreated, agreement)
}

func (ah *AgreementHandler) ListAgreements(c *gin.Context) {
	list, err := ah.agreements.ListAgreements(c.Request.Context())
	if err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (ah *AgreementHandler) ListUserAgreements(c *gin.Context) {
	list, err := ah.agreements.ListUserAgreements(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (ah *AgreementHandler) GetAgreement(c *gin.Context) {
	agreement, err := ah.agreements.GetAgreement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.JSON(http.StatusOK, agreement)
}

func (ah *AgreementHandler) AgreementHTML(c *gin.Context) {
	agreement, err := ah.agreements.GetAgreement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(agreement.HTMLContent))
}

func (ah *AgreementHandler) UpdateStatus(c *gin.Context) {
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "status is required")
		return
	}

	agreement, err := ah.agreements.UpdateStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.JSON(http.StatusOK, agreement)
}

func (ah *AgreementHandler) DeleteAgreement(c *gin.Context) {
	if err := ah.agreements.DeleteAgreement(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SendForSignature dispatches the agreement on behalf of the caller. A
// userId in the body must name the caller.
func (ah *AgreementHandler) SendForSignature(c *gin.Context) {
	var in struct {
		UserID string `json:"userId"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid signature payload")
			return
		}
	}
	userID := currentUserID(c)
	if in.UserID != "" && in.UserID != userID {
		badRequest(c, "userId does not match the authenticated user")
		return
	}

	result, err := ah.signatures.SendForSignature(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
