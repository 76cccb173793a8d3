package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"menuqr/internal/authz"
	"menuqr/internal/handlers"
	"menuqr/internal/metrics"
	"menuqr/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	tokens *authz.TokenManager,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	passwordHandler *handlers.PasswordHandler,
	qrHandler *handlers.QRHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {

	// ---- service
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ---- public
	r.POST("/auth/login", authHandler.Login)
	r.POST("/profile/email/confirm", profileHandler.ConfirmEmail)
	r.GET("/qr/:slug", qrHandler.Redirect)

	pw := r.Group("/password")
	{
		pw.GET("/identity", passwordHandler.Identity)
		pw.POST("/forgot", passwordHandler.Forgot)
		pw.POST("/verify-email", passwordHandler.VerifyEmail)
		pw.POST("/verify-sms", passwordHandler.VerifySMS)
		pw.POST("/resend-sms", passwordHandler.ResendSMS)
		pw.POST("/reset", passwordHandler.Reset)
	}

	// подписанная ссылка сама по себе является доступом, JWT не нужен
	r.GET("/admin/qr/file/:key", qrHandler.ServeFile)

	// ---- protected
	auth := middleware.AuthMiddleware(tokens)

	profile := r.Group("/profile", auth)
	{
		profile.GET("", profileHandler.GetProfile)
		profile.PUT("", profileHandler.UpdateProfile)
		profile.POST("/password", profileHandler.ChangePassword)
		profile.POST("/email/resend", profileHandler.ResendEmail)
		profile.POST("/phone/resend", profileHandler.ResendPhone)
		profile.POST("/phone/confirm", profileHandler.ConfirmPhone)
	}

	qr := r.Group("/admin/qr", auth)
	{
		qr.POST("", qrHandler.Create)
		qr.GET("", qrHandler.List)
		qr.GET("/stats", qrHandler.Stats)
		qr.GET("/:id", qrHandler.Get)
		qr.PUT("/:id", qrHandler.Update)
		qr.DELETE("/:id", qrHandler.Delete)
	}

	return r
}
