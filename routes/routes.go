package routes

import (
	"devsync/config"
	controller "devsync/controllers"
	"devsync/middleware"
	"devsync/services"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const accessLogFormat = "[${time}] ${status} - ${latency} ${method} ${path}\n"

func SetupAuthRoutes(app *fiber.App, db *gorm.DB, svc *services.Services, log *logrus.Logger) {
	authLogger := utils.Component(log, "auth")
	authController := controller.NewAuthController(db, svc.Auth, authLogger)

	// Public auth endpoints (no authentication required)
	auth := app.Group("/auth", logger.New(logger.Config{Format: accessLogFormat}))
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/refresh", authController.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected(db))
	protectedAuth.Post("/logout", authController.Logout)
	protectedAuth.Post("/change-password", authController.ChangePassword)
	protectedAuth.Get("/me", authController.GetCurrentUser)

	authLogger.Info("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, svc *services.Services, hub *services.ActivityHub, log *logrus.Logger) {
	teamController := controller.NewTeamController(svc.Teams, utils.Component(log, "teams"))
	projectController := controller.NewProjectController(svc.Projects, svc.Tasks, utils.Component(log, "projects"))
	taskController := controller.NewTaskController(svc.Tasks, utils.Component(log, "tasks"))
	reviewController := controller.NewReviewController(svc.Reviews, utils.Component(log, "reviews"))
	standupController := controller.NewStandupController(svc.Standups, utils.Component(log, "standups"))
	aiController := controller.NewAIController(svc, utils.Component(log, "ai"))
	profileController := controller.NewProfileController(svc.Profiles, utils.Component(log, "profiles"))
	dashboardController := controller.NewDashboardController(svc.Dashboard, utils.Component(log, "dashboard"))
	streamController := controller.NewActivityStreamController(svc.Projects, hub, utils.Component(log, "activity_stream"))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(db), logger.New(logger.Config{Format: accessLogFormat}))

	// Dashboard routes
	api.Get("/dashboard", dashboardController.GetDashboard)
	api.Get("/activity", dashboardController.GetActivity)

	// Profile routes
	api.Get("/profile", profileController.GetProfile)
	api.Put("/profile", profileController.UpdateProfile)

	// Team routes
	team := api.Group("/teams")
	team.Get("/", teamController.ListTeams)
	team.Post("/", teamController.CreateTeam)
	team.Post("/join", teamController.JoinTeam)
	team.Get("/:id", teamController.GetTeam)
	team.Put("/:id", teamController.UpdateTeam)
	team.Delete("/:id", teamController.DeleteTeam)
	team.Get("/:id/members", teamController.ListMembers)
	team.Post("/:id/members", teamController.AddMember)
	team.Delete("/:id/members/:userId", teamController.RemoveMember)
	team.Put("/:id/status", teamController.UpdateStatus)
	team.Get("/:id/invites", teamController.PendingInvites)
	team.Post("/:id/vibe", teamController.AnalyzeVibe)
	team.Post("/:id/invites",
		middleware.InviteRateLimiter(config.AppConfig.InviteRateLimit, middleware.RateLimitStorage(config.AppConfig.Redis), utils.Component(log, "rate_limit")),
		teamController.InviteMembers)

	// Project routes
	project := api.Group("/projects")
	project.Get("/", projectController.ListProjects)
	project.Post("/", projectController.CreateProject)
	project.Get("/:id", projectController.GetProject)
	project.Put("/:id", projectController.UpdateProject)
	project.Post("/:id/archive", projectController.ArchiveProject)
	project.Post("/:id/complete", projectController.CompleteProject)
	project.Post("/:id/reactivate", projectController.ReactivateProject)
	project.Post("/:id/members", projectController.AddMember)
	project.Delete("/:id/members/:userId", projectController.RemoveMember)
	project.Get("/:id/board", projectController.GetBoard)
	project.Get("/:id/reviews/inbox", projectController.GetInbox)
	project.Get("/:id/insights", projectController.GetInsights)
	project.Get("/:id/tasks", projectController.ListTasks)
	project.Get("/:id/feature-plans", projectController.ListFeaturePlans)
	project.Post("/:id/feature-plans", projectController.PlanFeature)

	// WebSocket route for live project activity
	project.Get("/:id/activity/ws", streamController.Upgrade, websocket.New(streamController.Stream))

	// Task routes
	task := api.Group("/tasks")
	task.Get("/mine", taskController.MyTasks)
	task.Post("/", taskController.CreateTask)
	task.Get("/:id", taskController.GetTask)
	task.Put("/:id", taskController.UpdateTask)
	task.Post("/:id/complete", taskController.CompleteTask)
	task.Post("/:id/assign", taskController.AssignTask)

	// Code review routes
	review := api.Group("/reviews")
	review.Get("/", reviewController.ListReviews)
	review.Post("/", reviewController.CreateReview)
	review.Get("/:id", reviewController.GetReview)
	review.Put("/:id", reviewController.UpdateReview)
	review.Post("/:id/reviewer", reviewController.AssignReviewer)
	review.Post("/:id/approve", reviewController.ApproveReview)
	review.Post("/:id/request-changes", reviewController.RequestChanges)
	review.Post("/:id/comments", reviewController.AddComment)
	review.Post("/:id/suggestions/regenerate", reviewController.RegenerateSuggestions)

	// Standup routes
	standup := api.Group("/standups")
	standup.Get("/", standupController.MyStandups)
	standup.Post("/", standupController.SubmitStandup)
	standup.Post("/:id/summary/regenerate", standupController.RegenerateSummary)

	// AI job polling
	api.Get("/ai/:kind/:id/status", aiController.GetStatus)
}

// SetupRoutes mounts every route group on app.
func SetupRoutes(app *fiber.App, db *gorm.DB, svc *services.Services, hub *services.ActivityHub, log *logrus.Logger) {
	app.Use(middleware.RequestMetrics())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if !config.AppConfig.IsProduction() {
		app.Use(pprof.New())
	}

	SetupAuthRoutes(app, db, svc, log)
	SetupAPIRoutes(app, db, svc, hub, log)
}
