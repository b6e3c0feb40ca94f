package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/dto"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/repository"
	pkgerrors "github.com/Abdullah-Shahriar/UIU-Hub/pkg/errors"
)

// ── 课表目录模块业务错误 ──

var (
	ErrCatalogNotFound        = errors.New("课表目录不存在")
	ErrCatalogVersionConflict = errors.New("目录已被修改，请刷新后重试")
)

// CatalogService 课表目录业务接口
type CatalogService interface {
	List(ctx context.Context, req *dto.CatalogListRequest) (*dto.PageResponse[dto.CatalogResponse], error)
	GetByID(ctx context.Context, id string) (*dto.CatalogResponse, error)
	Rename(ctx context.Context, id string, req *dto.RenameCatalogRequest) (*dto.CatalogResponse, error)
	Delete(ctx context.Context, id string) error
	// Courses 返回目录课程；q 非空时按课程搜索规则过滤
	Courses(ctx context.Context, id, q string) (*dto.SearchCoursesResponse, error)
	// LoadCourses 按出现顺序加载目录课程
	LoadCourses(ctx context.Context, id string) ([]model.Course, error)
}

type catalogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例；repo 为 nil 时所有操作返回 ErrCatalogStorageDisabled
func NewCatalogService(repo *repository.Repository, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, logger: logger}
}

func (s *catalogService) List(ctx context.Context, req *dto.CatalogListRequest) (*dto.PageResponse[dto.CatalogResponse], error) {
	if s.repo == nil {
		return nil, ErrCatalogStorageDisabled
	}

	catalogs, total, err := s.repo.Catalog.List(ctx, req.Program, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询课表目录列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.CatalogResponse, 0, len(catalogs))
	for i := range catalogs {
		items = append(items, toCatalogResponse(&catalogs[i]))
	}
	return dto.NewPageResponse(items, total, &req.PaginationRequest), nil
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*dto.CatalogResponse, error) {
	catalog, err := s.getCatalog(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCatalogResponse(catalog)
	return &resp, nil
}

// Rename 以乐观锁更新名称，版本不一致时返回 ErrCatalogVersionConflict
func (s *catalogService) Rename(ctx context.Context, id string, req *dto.RenameCatalogRequest) (*dto.CatalogResponse, error) {
	catalog, err := s.getCatalog(ctx, id)
	if err != nil {
		return nil, err
	}
	if catalog.Version != req.Version {
		return nil, fmt.Errorf("%w: 当前版本 %d", ErrCatalogVersionConflict, catalog.Version)
	}

	if err := s.repo.Catalog.Rename(ctx, catalog, req.Name); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrCatalogVersionConflict
		}
		s.logger.Error("重命名课表目录失败", zap.String("catalog_id", id), zap.Error(err))
		return nil, err
	}

	resp := toCatalogResponse(catalog)
	return &resp, nil
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	if _, err := s.getCatalog(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Catalog.Delete(ctx, id); err != nil {
		// 并发删除：查询后已被其他请求删除
		if errors.Is(err, pkgerrors.ErrNoRowsAffected) {
			return fmt.Errorf("%w: %s", ErrCatalogNotFound, id)
		}
		s.logger.Error("删除课表目录失败", zap.String("catalog_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("课表目录已删除", zap.String("catalog_id", id))
	return nil
}

func (s *catalogService) Courses(ctx context.Context, id, q string) (*dto.SearchCoursesResponse, error) {
	courses, err := s.LoadCourses(ctx, id)
	if err != nil {
		return nil, err
	}
	filtered := FilterCourses(courses, q)
	return &dto.SearchCoursesResponse{Courses: filtered, Total: len(filtered)}, nil
}

func (s *catalogService) LoadCourses(ctx context.Context, id string) ([]model.Course, error) {
	if _, err := s.getCatalog(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.repo.Catalog.ListCourses(ctx, id)
	if err != nil {
		s.logger.Error("查询目录课程失败", zap.String("catalog_id", id), zap.Error(err))
		return nil, err
	}
	courses := make([]model.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.ToCourse())
	}
	return courses, nil
}

// ── 内部辅助方法 ──

func (s *catalogService) getCatalog(ctx context.Context, id string) (*model.RoutineCatalog, error) {
	if s.repo == nil {
		return nil, ErrCatalogStorageDisabled
	}
	catalog, err := s.repo.Catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, id)
		}
		s.logger.Error("查询课表目录失败", zap.String("catalog_id", id), zap.Error(err))
		return nil, err
	}
	return catalog, nil
}

func toCatalogResponse(c *model.RoutineCatalog) dto.CatalogResponse {
	warnings := make([]dto.BlockWarning, 0)
	if len(c.Warnings) > 0 {
		// 历史数据格式异常时忽略警告，不影响目录读取
		_ = json.Unmarshal(c.Warnings, &warnings)
	}
	programs := []string(c.Programs)
	if programs == nil {
		programs = []string{}
	}
	return dto.CatalogResponse{
		ID:          c.CatalogID,
		Name:        c.Name,
		Format:      c.Format,
		Programs:    programs,
		BlockCount:  c.BlockCount,
		CourseCount: c.CourseCount,
		Warnings:    warnings,
		Version:     c.Version,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}
