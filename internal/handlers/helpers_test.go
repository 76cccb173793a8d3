package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"menuqr/internal/services"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrConflict, http.StatusConflict},
		{services.ErrSlugExhausted, http.StatusConflict},
		{services.ErrThrottled, http.StatusTooManyRequests},
		{services.ErrNotFound, http.StatusBadRequest},
		{services.ErrExpired, http.StatusBadRequest},
		{services.ErrInvalidToken, http.StatusBadRequest},
		{services.ErrInvalidCode, http.StatusBadRequest},
		{services.ErrTooManyAttempts, http.StatusBadRequest},
		{services.ErrVerificationIncomplete, http.StatusBadRequest},
		{services.ErrWeakPassword, http.StatusBadRequest},
		{services.ErrValidation, http.StatusBadRequest},
		{fmt.Errorf("%w: sms transport", services.ErrConfiguration), http.StatusBadRequest},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWriteErrorHidesInternals(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want string
	}{
		{errors.New("dial tcp 10.0.0.3:27017: refused"), "internal server error"},
		{fmt.Errorf("%w: email transport", services.ErrConfiguration), "this action is temporarily unavailable"},
		{services.ErrWeakPassword, services.ErrWeakPassword.Error()},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, "[test]", tc.err)

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["error"] != tc.want {
			t.Errorf("error = %q, want %q", body["error"], tc.want)
		}
	}
}

func TestRespondLookupErrorMapsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondLookupError(c, "[test]", fmt.Errorf("qr code: %w", services.ErrNotFound))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}
