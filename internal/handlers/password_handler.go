package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"menuqr/internal/models"
	"menuqr/internal/services"
)

// PasswordHandler exposes the public forgotten-password flow.
type PasswordHandler struct {
	Service *services.PasswordResetService
}

func NewPasswordHandler(service *services.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{Service: service}
}

type forgotPasswordRequest struct {
	Method string `json:"method" binding:"required,oneof=email phone"`
	Value  string `json:"value" binding:"required"`
}

type verifyResetEmailRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Token     string `json:"token" binding:"required"`
}

type verifyResetSMSRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

type resendResetSMSRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

type resetPasswordRequest struct {
	SessionID   string `json:"sessionId" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// @Summary  Маскированные контакты администратора
// @Tags     Password
// @Produce  json
// @Success  200 {object} models.AdminContact
// @Failure  400 {object} map[string]string
// @Router   /password/identity [get]
func (h *PasswordHandler) Identity(c *gin.Context) {
	contact, err := h.Service.RegisteredAdminContact(c.Request.Context())
	if err != nil {
		respondError(c, "[reset][identity]", err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// @Summary      Начать восстановление пароля
// @Description  method=email отправляет ссылку, method=phone отправляет SMS-код
// @Tags         Password
// @Accept       json
// @Produce      json
// @Param        body body     forgotPasswordRequest true "Способ и контакт"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]interface{}
// @Failure      429  {object} map[string]string
// @Router       /password/forgot [post]
func (h *PasswordHandler) Forgot(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Service.InitiatePasswordReset(c.Request.Context(), models.ResetMethod(req.Method), req.Value)
	if err != nil {
		respondError(c, "[reset][forgot]", err)
		return
	}
	body := gin.H{"message": "Reset started", "sessionId": res.Session.ID}
	switch res.Session.Method {
	case models.ResetByEmail:
		body["message"] = "Reset link sent"
		body["maskedEmail"] = res.MaskedEmail
	case models.ResetByPhone:
		body["message"] = "Reset code sent"
		body["maskedPhone"] = res.MaskedPhone
	}
	if res.DebugCode != "" {
		body["debugCode"] = res.DebugCode
	}
	c.JSON(http.StatusOK, body)
}

// @Summary  Подтвердить ссылку из письма
// @Tags     Password
// @Accept   json
// @Produce  json
// @Param    body body     verifyResetEmailRequest true "Сессия и токен"
// @Success  200  {object} map[string]interface{}
// @Failure  400  {object} map[string]interface{}
// @Router   /password/verify-email [post]
func (h *PasswordHandler) VerifyEmail(c *gin.Context) {
	var req verifyResetEmailRequest
	if !bindJSON(c, &req) {
		return
	}
	smsRequired, err := h.Service.VerifyEmailForReset(c.Request.Context(), req.SessionID, req.Token)
	if err != nil {
		respondError(c, "[reset][verify-email]", err)
		return
	}
	msg := "Email verified, you can set a new password"
	if smsRequired {
		msg = "Email verified, enter the code sent by SMS"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "smsRequired": smsRequired})
}

// @Summary  Подтвердить SMS-код
// @Tags     Password
// @Accept   json
// @Produce  json
// @Param    body body     verifyResetSMSRequest true "Сессия и код"
// @Success  200  {object} map[string]interface{}
// @Failure  400  {object} map[string]interface{}
// @Router   /password/verify-sms [post]
func (h *PasswordHandler) VerifySMS(c *gin.Context) {
	var req verifyResetSMSRequest
	if !bindJSON(c, &req) {
		return
	}
	verified, err := h.Service.VerifySmsForReset(c.Request.Context(), req.SessionID, req.Code)
	if err != nil {
		respondError(c, "[reset][verify-sms]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone verified", "smsVerified": verified})
}

// @Summary  Отправить SMS-код повторно
// @Tags     Password
// @Accept   json
// @Produce  json
// @Param    body body     resendResetSMSRequest true "Сессия"
// @Success  200  {object} map[string]interface{}
// @Failure  400  {object} map[string]interface{}
// @Failure  429  {object} map[string]string
// @Router   /password/resend-sms [post]
func (h *PasswordHandler) ResendSMS(c *gin.Context) {
	var req resendResetSMSRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Service.ResendResetSMS(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, "[reset][resend-sms]", err)
		return
	}
	body := gin.H{"message": "Reset code sent", "sessionId": res.Session.ID, "maskedPhone": res.MaskedPhone}
	if res.DebugCode != "" {
		body["debugCode"] = res.DebugCode
	}
	c.JSON(http.StatusOK, body)
}

// @Summary  Установить новый пароль
// @Tags     Password
// @Accept   json
// @Produce  json
// @Param    body body     resetPasswordRequest true "Сессия и новый пароль"
// @Success  200  {object} map[string]string
// @Failure  400  {object} map[string]interface{}
// @Router   /password/reset [post]
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Service.CompletePasswordReset(c.Request.Context(), req.SessionID, req.NewPassword); err != nil {
		respondError(c, "[reset][complete]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}
