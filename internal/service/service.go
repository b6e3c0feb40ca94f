package service

import (
	"go.uber.org/zap"

	"github.com/Abdullah-Shahriar/UIU-Hub/config"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/repository"
	"github.com/Abdullah-Shahriar/UIU-Hub/pkg/pdftext"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Routine RoutineService
	Catalog CatalogService
	Planner PlannerService
	Export  ExportService

	// Sessions 由 main 负责启动/停止后台清理
	Sessions *SessionManager
}

// NewService 创建 Service 聚合
// repo 为 nil 表示未启用数据库；cache 为 nil 表示不使用解析缓存。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache ParseCache,
	logger *zap.Logger,
) *Service {
	sessions := NewSessionManager(&cfg.Planner, logger)
	catalogs := NewCatalogService(repo, logger)
	exporter := NewExportService(&cfg.Export, logger)

	return &Service{
		Routine: NewRoutineService(
			cfg,
			NewRoutineParser(&cfg.Parser, logger),
			pdftext.NewExtractor(logger),
			cache,
			repo,
			logger,
		),
		Catalog:  catalogs,
		Planner:  NewPlannerService(&cfg.Planner, sessions, catalogs, exporter, logger),
		Export:   exporter,
		Sessions: sessions,
	}
}
