package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"menuqr/internal/middleware"
	"menuqr/internal/services"
	"menuqr/internal/utils"
)

// статус для ошибок сервисов; всё неизвестное уходит в 500 без подробностей
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrSlugExhausted):
		return http.StatusConflict
	case errors.Is(err, services.ErrThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrExpired),
		errors.Is(err, services.ErrInvalidSecret),
		errors.Is(err, services.ErrTooManyAttempts),
		errors.Is(err, services.ErrVerificationIncomplete),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConfiguration):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, tag string, err error) {
	writeError(c, tag, statusFor(err), err)
}

// respondLookupError is respondError for routes addressing one QR record:
// a missing record is 404 there.
func respondLookupError(c *gin.Context, tag string, err error) {
	status := statusFor(err)
	if errors.Is(err, services.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeError(c, tag, status, err)
}

func writeError(c *gin.Context, tag string, status int, err error) {
	msg := err.Error()
	switch {
	case status >= 500:
		log.Errorf("%s %v", tag, err)
		msg = "internal server error"
	case errors.Is(err, services.ErrConfiguration):
		// детали конфигурации только в лог
		log.Errorf("%s %v", tag, err)
		msg = "this action is temporarily unavailable"
	default:
		log.Infof("%s rejected status=%d: %v", tag, status, err)
	}
	c.JSON(status, gin.H{"error": msg})
}

// bindJSON answers 400 with field-level issues when the body does not bind.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		body := gin.H{"error": "invalid request body"}
		if fields := utils.FormatValidationErrors(err); fields != nil {
			body["error"] = "validation failed"
			body["fields"] = fields
		}
		c.JSON(http.StatusBadRequest, body)
		return false
	}
	return true
}

// adminFromCtx reads the id put there by middleware.AuthMiddleware.
func adminFromCtx(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(middleware.AdminIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	s, ok := v.(string)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func requireAdmin(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := adminFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id, ok
}

func parseIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}
