package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Router builds the gin engine with every route and middleware.
func (h *Handler) Router(allowOrigins []string) (*gin.Engine, error) {
	if err := registerValidations(); err != nil {
		return nil, err
	}

	r := gin.New()
	if err := r.SetTrustedProxies(h.proxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), requestID(), h.accessLog())
	if len(allowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", h.Healthz)

	a := r.Group("/api/auth")
	{
		a.POST("/register", h.rateLimit("register"), h.Register)
		a.GET("/verify", h.Verify)
		a.POST("/resend-verification", h.rateLimit("resend-verification"), h.ResendVerification)
		a.POST("/login", h.rateLimit("login"), h.Login)
		a.POST("/refresh", h.Refresh)
		a.POST("/logout", h.Logout)
		a.POST("/forgot-password", h.rateLimit("forgot-password"), h.ForgotPassword)
		a.POST("/reset-password", h.ResetPassword)
		a.GET("/me", h.requireAccess(), h.Me)
	}

	p := r.Group("/api/phones", h.requireAccess())
	{
		p.GET("", h.ListPhones)
		p.POST("", h.AddPhone)
		p.GET("/:id", h.GetPhone)
		p.DELETE("/:id", h.DeletePhone)
	}

	return r, nil
}
