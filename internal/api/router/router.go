package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Abdullah-Shahriar/UIU-Hub/config"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/api/handler"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/api/middleware"
)

// Pinger 健康检查依赖（数据库、Redis）
type Pinger interface {
	Ping(ctx context.Context) error
}

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时解析接口不限流；deps 仅包含已启用的依赖
func Setup(cfg *config.Config, h *handler.Handler, limiter middleware.RateLimiter, deps map[string]Pinger, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Upload.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", health(deps))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 课表解析
		routines := v1.Group("/routines")
		{
			routines.POST("/parse",
				middleware.RateLimit(limiter, cfg.Upload.RateLimit, cfg.Upload.RateWindow, logger),
				h.Routine.Parse)
			routines.GET("/demo", h.Routine.Demo)
		}

		// 无状态课程搜索
		v1.POST("/courses/search", h.Routine.SearchCourses)

		// 已保存的课表目录
		catalogs := v1.Group("/catalogs")
		{
			catalogs.GET("", h.Catalog.ListCatalogs)
			catalogs.GET("/:id", h.Catalog.GetCatalog)
			catalogs.PUT("/:id", h.Catalog.RenameCatalog)
			catalogs.DELETE("/:id", h.Catalog.DeleteCatalog)
			catalogs.GET("/:id/courses", h.Catalog.ListCourses)
		}

		// Section Planner 会话
		sessions := v1.Group("/planner/sessions")
		{
			sessions.POST("", h.Planner.CreateSession)
			sessions.GET("/:sid", h.Planner.GetSession)
			sessions.DELETE("/:sid", h.Planner.DeleteSession)

			sessions.POST("/:sid/plans", h.Planner.AddPlan)
			sessions.POST("/:sid/plans/import", h.Planner.ImportPlan)
			sessions.POST("/:sid/plans/import-ics", h.Planner.ImportCalendar)
			sessions.PUT("/:sid/plans/:pid", h.Planner.RenamePlan)
			sessions.DELETE("/:sid/plans/:pid", h.Planner.DeletePlan)

			sessions.POST("/:sid/select", h.Planner.SelectCourse)
			sessions.POST("/:sid/move", h.Planner.MoveCourse)
			sessions.POST("/:sid/remove", h.Planner.RemoveCourse)
			sessions.POST("/:sid/clear", h.Planner.ClearAll)
			sessions.POST("/:sid/conflicts", h.Planner.CheckConflict)
			sessions.POST("/:sid/generate", h.Planner.Generate)

			sessions.GET("/:sid/search", h.Planner.Search)
			sessions.GET("/:sid/export", h.Export.ExportPlans)
		}
	}

	return r
}

// health 逐个探测依赖，任一失败返回 503
func health(deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(gin.H, len(deps))
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "up"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": checks})
	}
}
