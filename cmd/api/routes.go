package main

import (
	"campaign-platform/internal/httpapi"
	"campaign-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, authMW gin.HandlerFunc, h httpapi.Handlers) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	v1.Use(rbac.RequireOrg())
	{
		// CREDITS routes
		creditsGroup := v1.Group("/credits")
		{
			creditsGroup.GET("/balance",
				rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleOperator, rbac.RoleAnalyst, rbac.RoleFinance),
				h.GetBalance)
			creditsGroup.GET("/history",
				rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst, rbac.RoleFinance),
				h.GetHistory)
			creditsGroup.POST("/purchase",
				rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleFinance),
				h.Purchase)
			creditsGroup.POST("/refund",
				rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleFinance),
				h.Refund)
		}

		// CAMPAIGNS routes
		campaignsGroup := v1.Group("/campaigns")
		campaignsGroup.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleOperator, rbac.RoleAnalyst))
		{
			campaignsGroup.POST("", h.CreateCampaign)
			campaignsGroup.GET("/:campaign_id", h.GetCampaign)
			campaignsGroup.GET("/:campaign_id/estimate", h.EstimateCampaign)
			campaignsGroup.POST("/:campaign_id/launch", h.LaunchCampaign)
			campaignsGroup.POST("/:campaign_id/activate", h.ActivateCampaign())
			campaignsGroup.POST("/:campaign_id/pause", h.PauseCampaign())
			campaignsGroup.POST("/:campaign_id/resume", h.ResumeCampaign())
			campaignsGroup.POST("/:campaign_id/complete", h.CompleteCampaign)
			campaignsGroup.GET("/:campaign_id/roi", h.GetCampaignROI)
		}

		// ANALYTICS routes
		analyticsGroup := v1.Group("/analytics")
		{
			// Ingest is open to operators; the delivery layer posts here with
			// a service account carrying the operator role.
			analyticsGroup.POST("/interactions",
				rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleBillingBot),
				h.IngestInteraction)
			analyticsGroup.GET("/snapshot",
				rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleOperator, rbac.RoleAnalyst, rbac.RoleFinance),
				h.GetSnapshot)
		}

		// A/B TEST routes
		abGroup := v1.Group("/abtests")
		abGroup.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst))
		{
			abGroup.POST("", h.CreateABTest)
			abGroup.GET("/:test_id/result", h.GetABTestResult)
		}

		// ADMIN routes
		// Only owner/finance/super_admin can access admin endpoints by default.
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleFinance))
		{
			admin.POST("/credits/adjust", h.AdminAdjustCredits)
		}
	}
}
