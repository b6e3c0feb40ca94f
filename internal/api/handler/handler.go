package handler

import "github.com/Abdullah-Shahriar/UIU-Hub/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Routine *RoutineHandler
	Catalog *CatalogHandler
	Planner *PlannerHandler
	Export  *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Routine: NewRoutineHandler(svc.Routine),
		Catalog: NewCatalogHandler(svc.Catalog),
		Planner: NewPlannerHandler(svc.Planner),
		Export:  NewExportHandler(svc.Planner),
	}
}
