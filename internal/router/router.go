package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/config"
	"github.com/hyi96/taskweb/internal/engine"
	"github.com/hyi96/taskweb/internal/handler"
	"github.com/hyi96/taskweb/internal/middleware"
)

// SetupRouter configures the Gin engine and the full API surface.
func SetupRouter(cfg *config.Config, db *gorm.DB, loc *time.Location) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	eng := engine.New(db, loc)

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret

	// Open endpoints: auth plus the phrase of the day.
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	phraseHandler := handler.NewPhraseHandler(db, loc)
	api.GET("/phrase/today", phraseHandler.Today)

	protected := api.Group("")
	protected.Use(middleware.Auth(jwtSecret, db))

	profileHandler := handler.NewProfileHandler(db)
	protected.GET("/profiles", profileHandler.List)
	protected.POST("/profiles", profileHandler.Create)
	protected.GET("/profiles/:id", profileHandler.Get)
	protected.PUT("/profiles/:id", profileHandler.Update)
	protected.DELETE("/profiles/:id", profileHandler.Delete)

	taskHandler := handler.NewTaskHandler(db, eng)
	protected.GET("/tasks", taskHandler.List)
	protected.POST("/tasks", taskHandler.Create)
	protected.GET("/tasks/:id", taskHandler.Get)
	protected.PUT("/tasks/:id", taskHandler.Update)
	protected.DELETE("/tasks/:id", taskHandler.Delete)

	streakRuleHandler := handler.NewStreakRuleHandler(db, eng)
	protected.GET("/tasks/:id/streak-rules", streakRuleHandler.List)
	protected.POST("/tasks/:id/streak-rules", streakRuleHandler.Create)
	protected.DELETE("/tasks/:id/streak-rules/:ruleID", streakRuleHandler.Delete)

	checklistHandler := handler.NewChecklistHandler(db)
	protected.GET("/tasks/:id/checklist", checklistHandler.List)
	protected.POST("/tasks/:id/checklist", checklistHandler.Create)
	protected.PUT("/tasks/:id/checklist/:itemID", checklistHandler.Update)
	protected.DELETE("/tasks/:id/checklist/:itemID", checklistHandler.Delete)

	actionHandler := handler.NewActionHandler(db, eng)
	protected.POST("/tasks/:id/increment", actionHandler.HabitIncrement)
	protected.POST("/tasks/:id/complete-daily", actionHandler.DailyComplete)
	protected.POST("/tasks/:id/complete-todo", actionHandler.TodoComplete)
	protected.POST("/tasks/:id/claim", actionHandler.RewardClaim)
	protected.POST("/activity-duration", actionHandler.ActivityDuration)

	newDayHandler := handler.NewNewDayHandler(db, eng)
	protected.GET("/new-day", newDayHandler.Preview)
	protected.POST("/new-day", newDayHandler.Start)

	logHandler := handler.NewLogHandler(db, cfg.App.PageSize)
	protected.GET("/logs", logHandler.List)
	protected.GET("/logs/export/csv", logHandler.ExportCSV)
	protected.GET("/logs/export/xlsx", logHandler.ExportXLSX)

	migrateHandler := handler.NewMigrateHandler(db)
	protected.POST("/migrate/local", migrateHandler.MigrateLocal)

	return r
}
