package main

import (
	"github.com/gin-gonic/gin"
	"partner-portal.backend/internal/interfaces/http/handlers"
	"partner-portal.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	onboardingHandler *handlers.OnboardingHandler
	dashboardHandler  *handlers.DashboardHandler
	webhookHandler    *handlers.WebhookHandler
	authMiddleware    gin.HandlerFunc
	dashboardGate     gin.HandlerFunc
	webhookSecret     gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Onboarding wizard (protected)
		onboarding := v1.Group("/onboarding")
		onboarding.Use(d.authMiddleware)
		{
			onboarding.GET("", d.onboardingHandler.GetOnboarding)
			onboarding.POST("/duplicate-check", d.onboardingHandler.CheckDuplicate)
			onboarding.POST("/business/verify", d.onboardingHandler.VerifyBusiness)
			onboarding.POST("/bank/verify", d.onboardingHandler.VerifyBank)
			onboarding.POST("/step1", d.onboardingHandler.SubmitStep1)
			onboarding.POST("/step2", d.onboardingHandler.SubmitStep2)
			onboarding.POST("/step3", middleware.IdempotencyMiddleware(), d.onboardingHandler.SubmitStep3)
			onboarding.PUT("/contact", middleware.IdempotencyMiddleware(), d.onboardingHandler.UpdateContact)
			onboarding.GET("/status", d.onboardingHandler.GetStatus)
		}

		// Dashboard (protected)
		dashboard := v1.Group("/dashboard")
		dashboard.Use(d.authMiddleware)
		{
			dashboard.GET("/access", d.dashboardHandler.GetAccess)
			dashboard.GET("/summary", d.dashboardGate, d.dashboardHandler.GetSummary)
		}

		// Provider webhooks (shared secret)
		webhooks := v1.Group("/webhooks")
		webhooks.Use(d.webhookSecret)
		{
			webhooks.POST("/payout-provider", d.webhookHandler.HandlePayoutProviderWebhook)
		}
	}
}
