package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/repository"
	pkgerrors "github.com/Abdullah-Shahriar/UIU-Hub/pkg/errors"
)

// ── Mock CatalogRepository ──

type mockCatalogRepo struct {
	catalogs map[string]*model.RoutineCatalog
	courses  map[string][]model.CatalogCourse
	seq      int

	// 模拟并发修改：Rename 时无条件返回乐观锁冲突
	staleOnRename bool
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		catalogs: make(map[string]*model.RoutineCatalog),
		courses:  make(map[string][]model.CatalogCourse),
	}
}

func newMockRepository(catalogRepo *mockCatalogRepo) *repository.Repository {
	return &repository.Repository{Catalog: catalogRepo}
}

func (m *mockCatalogRepo) Create(_ context.Context, catalog *model.RoutineCatalog, courses []model.Course) error {
	m.seq++
	if catalog.CatalogID == "" {
		catalog.CatalogID = fmt.Sprintf("cat-%d", m.seq)
	}
	now := time.Date(2026, 1, 10, 9, 0, m.seq, 0, time.UTC)
	catalog.CreatedAt = now
	catalog.UpdatedAt = now
	catalog.Version = 1
	catalog.CourseCount = len(courses)
	m.catalogs[catalog.CatalogID] = catalog

	rows := make([]model.CatalogCourse, 0, len(courses))
	for i, c := range courses {
		rows = append(rows, model.NewCatalogCourse(catalog.CatalogID, i, c))
	}
	m.courses[catalog.CatalogID] = rows
	return nil
}

func (m *mockCatalogRepo) GetByID(_ context.Context, id string) (*model.RoutineCatalog, error) {
	if c, ok := m.catalogs[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogRepo) GetByHash(_ context.Context, hash string) (*model.RoutineCatalog, error) {
	for _, c := range m.catalogs {
		if c.TextHash == hash {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogRepo) List(_ context.Context, program string, offset, limit int) ([]model.RoutineCatalog, int64, error) {
	var matched []model.RoutineCatalog
	for _, c := range m.catalogs {
		if program != "" && !containsString(c.Programs, program) {
			continue
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.RoutineCatalog{}, total, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], total, nil
}

func (m *mockCatalogRepo) ListCourses(_ context.Context, catalogID string) ([]model.CatalogCourse, error) {
	return m.courses[catalogID], nil
}

func (m *mockCatalogRepo) Rename(_ context.Context, catalog *model.RoutineCatalog, name string) error {
	if m.staleOnRename {
		return pkgerrors.ErrOptimisticLock
	}
	stored, ok := m.catalogs[catalog.CatalogID]
	if !ok || stored.Version != catalog.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Name = name
	stored.Version++
	catalog.Name = stored.Name
	catalog.Version = stored.Version
	return nil
}

func (m *mockCatalogRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.catalogs[id]; !ok {
		return pkgerrors.ErrNoRowsAffected
	}
	delete(m.catalogs, id)
	delete(m.courses, id)
	return nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
