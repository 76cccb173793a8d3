package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"menuqr/internal/models"
	"menuqr/internal/services"
)

type ProfileHandler struct {
	Profile *services.ProfileService
	Verify  *services.VerificationService
}

func NewProfileHandler(profile *services.ProfileService, verify *services.VerificationService) *ProfileHandler {
	return &ProfileHandler{Profile: profile, Verify: verify}
}

type updateProfileRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type confirmEmailRequest struct {
	Token   string `json:"token" binding:"required"`
	Context string `json:"context"`
}

type confirmPhoneRequest struct {
	Code string `json:"code" binding:"required"`
}

// @Summary  Профиль текущего администратора
// @Tags     Profile
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} models.Admin
// @Failure  401 {object} map[string]string
// @Router   /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	adminID, ok := requireAdmin(c)
	if !ok {
		return
	}
	admin, err := h.Profile.GetProfile(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, "[profile][get]", err)
		return
	}
	c.JSON(http.StatusOK, admin)
}

// @Summary      Обновить профиль
// @Description  Новый email/телефон применяется только после подтверждения
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     updateProfileRequest true "Изменяемые поля"
// @Success      200  {object} services.ProfileUpdateResult
// @Failure      400  {object} map[string]interface{}
// @Failure      409  {object} map[string]string
// @Router       /profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	adminID, ok := requireAdmin(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Profile.UpdateProfile(c.Request.Context(), adminID, services.ProfileUpdate{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, "[profile][update]", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary  Сменить пароль
// @Tags     Profile
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body     changePasswordRequest true "Текущий и новый пароль"
// @Success  200  {object} map[string]string
// @Failure  400  {object} map[string]interface{}
// @Failure  401  {object} map[string]string
// @Router   /profile/password [post]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	adminID, ok := requireAdmin(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Profile.ChangePassword(c.Request.Context(), adminID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, "[profile][password]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

// ===== Подтверждение email =====

// @Summary  Повторно отправить ссылку подтверждения email
// @Tags     Profile
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]string
// @Failure  400 {object} map[string]string
// @Failure  429 {object} map[string]string
// @Router   /profile/email/resend [post]
func (h *ProfileHandler) ResendEmail(c *gin.Context) {
	adminID, ok := requireAdmin(c)
	if !ok {
		return
	}
	sent, err := h.Profile.ResendEmailVerification(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, "[profile][email][resend]", err)
		return
	}
	if !sent {
		c.JSON(http.StatusOK, gin.H{"message": "Email already verified"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification email sent"})
}

// ConfirmEmail is public: the token in the link is the credential.
//
// @Summary  Подтвердить email по ссылке
// @Tags     Profile
// @Accept   json
// @Produce  json
// @Param    body body     confirmEmailRequest true "Токен из письма"
// @Success  200  {object} map[string]string
// @Failure  400  {object} map[string]interface{}
// @Router   /profile/email/confirm [post]
func (h *ProfileHandler) ConfirmEmail(c *gin.Context) {
	var req confirmEmailRequest
	if !bindJSON(c, &req) {
		return
	}
	vctx, ok := models.ParseVerificationContext(req.Context)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown verification context"})
		return
	}
	admin, err := h.Verify.ConfirmEmailVerification(c.Request.Context(), req.Token, vctx)
	if err != nil {
		respondError(c, "[profile][email][confirm]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified", "adminId": admin.ID.Hex()})
}

// ===== Подтверждение телефона =====

// @Summary  Повторно отправить SMS-код
// @Tags     Profile
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]string
// @Failure  400 {object} map[string]string
// @Failure  429 {object} map[string]string
// @Router   /profile/phone/resend [post]
func (h *ProfileHandler) ResendPhone(c *gin.Context) {
	adminID, ok := requireAdmin(c)
	if !ok {
		return
	}
	sent, err := h.Profile.ResendPhoneVerification(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, "[profile][phone][resend]", err)
		return
	}
	if !sent {
		c.JSON(http.StatusOK, gin.H{"message": "Phone already verified"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "SMS sent"})
}

// @Summary  Подтвердить телефон кодом из SMS
// @Tags     Profile
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body     confirmPhoneRequest true "Код из SMS"
// @Success  200  {object} map[string]string
// @Failure  400  {object} map[string]interface{}
// @Router   /profile/phone/confirm [post]
func (h *ProfileHandler) ConfirmPhone(c *gin.Context) {
	adminID, ok := requireAdmin(c)
	if !ok {
		return
	}
	var req confirmPhoneRequest
	if !bindJSON(c, &req) {
		return
	}
	admin, err := h.Verify.ConfirmPhoneVerification(c.Request.Context(), adminID, req.Code, models.ContextProfile)
	if err != nil {
		respondError(c, "[profile][phone][confirm]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone verified", "adminId": admin.ID.Hex()})
}
