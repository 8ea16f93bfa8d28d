package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/middleware"
	"github.com/trekhive/trek-booking-backend/internal/models"
	"github.com/trekhive/trek-booking-backend/internal/services"
	"github.com/trekhive/trek-booking-backend/internal/utils"
	"github.com/trekhive/trek-booking-backend/pkg/jwt"
)

// AuthHandler handles vendor authentication and token refresh
type AuthHandler struct {
	vendorRepo  *database.VendorRepository
	jwtService  *jwt.Service
	rateLimiter *services.RateLimitService
	audit       *services.AuditService
	logger      *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	vendorRepo *database.VendorRepository,
	jwtService *jwt.Service,
	rateLimiter *services.RateLimitService,
	audit *services.AuditService,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		vendorRepo:  vendorRepo,
		jwtService:  jwtService,
		rateLimiter: rateLimiter,
		audit:       audit,
		logger:      logger,
	}
}

// VendorLogin authenticates a vendor with email and password
// @Summary Vendor login
// @Description Authenticate a vendor and issue a token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.VendorLoginRequest true "Login request"
// @Success 200 {object} models.VendorLoginResponse "Token pair"
// @Failure 401 {object} map[string]interface{} "Invalid credentials"
// @Failure 429 {object} map[string]interface{} "Too many attempts"
// @Router /api/v1/auth/vendor/login [post]
func (h *AuthHandler) VendorLogin(c *gin.Context) {
	var req models.VendorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	ip := utils.GetRealIP(c)

	if err := h.rateLimiter.CheckLoginRateLimit(email, ip); err != nil {
		respondError(c, err)
		return
	}

	vendor, err := h.vendorRepo.GetByEmail(email)
	if err != nil {
		// Unknown email and wrong password look identical to the caller
		h.failLogin(c, email, ip)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(vendor.PasswordHash), []byte(req.Password)); err != nil {
		if auditErr := h.audit.LogVendorLogin(vendor.ID, false, ip, utils.GetUserAgent(c)); auditErr != nil {
			h.logger.WithError(auditErr).Warn("Failed to write login audit event")
		}
		h.failLogin(c, email, ip)
		return
	}

	if vendor.Status != "active" {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Account is not active",
			"code":  "ACCOUNT_INACTIVE",
		})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(vendor.ID, middleware.RoleVendor)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(vendor.ID, middleware.RoleVendor)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	if auditErr := h.audit.LogVendorLogin(vendor.ID, true, ip, utils.GetUserAgent(c)); auditErr != nil {
		h.logger.WithError(auditErr).Warn("Failed to write login audit event")
	}

	h.logger.WithFields(logrus.Fields{
		"vendor_id": vendor.ID,
		"ip":        ip,
	}).Info("Vendor logged in")

	c.JSON(http.StatusOK, models.VendorLoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Vendor:       vendor,
	})
}

// failLogin records the failed attempt and returns a uniform 401
func (h *AuthHandler) failLogin(c *gin.Context, email, ip string) {
	if err := h.rateLimiter.RecordLoginAttempt(email, ip); err != nil {
		h.logger.WithError(err).Warn("Failed to record login attempt")
	}
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": "Invalid email or password",
		"code":  "INVALID_CREDENTIALS",
	})
}

// RefreshToken exchanges a valid refresh token for a new token pair
// @Summary Refresh tokens
// @Description Exchange a refresh token for a new token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RefreshTokenRequest true "Refresh request"
// @Success 200 {object} map[string]interface{} "New token pair"
// @Failure 401 {object} map[string]interface{} "Invalid refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired refresh token",
			"code":  "INVALID_REFRESH_TOKEN",
		})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(claims.UserID, claims.Role)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(claims.UserID, claims.Role)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}
