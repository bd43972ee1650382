package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scicent/backend/internal/handlers"
	"github.com/scicent/backend/internal/middleware"
)

// SetupRoutes wires every handler behind the auth and rate-limit
// middleware. Volunteer-facing routes need a valid token; review,
// template lifecycle, sales and adjustments additionally need the
// admin claim.
func SetupRoutes(
	router *gin.Engine,
	profileHandler *handlers.ProfileHandler,
	referralHandler *handlers.ReferralHandler,
	taskHandler *handlers.TaskHandler,
	templateHandler *handlers.TemplateHandler,
	saleHandler *handlers.SaleHandler,
	queueHandler *handlers.QueueHandler,
	rateLimiter *middleware.RateLimiter,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	api := router.Group("/api")
	api.Use(rateLimiter.Middleware())

	// Profile registration is the one unauthenticated surface; the
	// identity service calls it during signup.
	api.POST("/profiles", profileHandler.CreateProfile)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.GET("/profiles/me/snapshot", profileHandler.GetSnapshot)
		authed.GET("/profiles/me/ledger", profileHandler.GetLedgerHistory)

		authed.POST("/referrals", referralHandler.LinkReferral)
		authed.GET("/referrals/direct", referralHandler.ListDirectReferrals)

		authed.GET("/organizations/:id/templates", templateHandler.ListTemplates)
		authed.POST("/tasks/:id/accept", taskHandler.AcceptTask)
		authed.POST("/assignments/:id/submit", taskHandler.SubmitTask)
		authed.GET("/assignments/:id", taskHandler.GetAssignment)
	}

	admin := api.Group("")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("/templates", templateHandler.CreateTemplate)
		admin.POST("/templates/:id/publish", templateHandler.PublishTemplate)
		admin.POST("/templates/:id/archive", templateHandler.ArchiveTemplate)

		admin.POST("/assignments/:id/review", taskHandler.ReviewTask)
		admin.GET("/organizations/:id/overdue", taskHandler.ListOverdue)

		admin.POST("/sales", saleHandler.RecordSale)
		admin.POST("/adjustments", saleHandler.ManualAdjustment)

		admin.POST("/profiles/:id/recalculate-multiplier", profileHandler.RecalculateMultiplier)
		admin.DELETE("/profiles/:id", profileHandler.RetireProfile)

		admin.GET("/jobs/stats", queueHandler.GetStats)
	}
}
