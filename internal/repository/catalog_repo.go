package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
	pkgerrors "github.com/Abdullah-Shahriar/UIU-Hub/pkg/errors"
)

// catalogCourseBatchSize 批量写入课程行的批大小
const catalogCourseBatchSize = 200

// CatalogRepository 课表目录数据访问接口
type CatalogRepository interface {
	Create(ctx context.Context, catalog *model.RoutineCatalog, courses []model.Course) error
	GetByID(ctx context.Context, id string) (*model.RoutineCatalog, error)
	GetByHash(ctx context.Context, hash string) (*model.RoutineCatalog, error)
	List(ctx context.Context, program string, offset, limit int) ([]model.RoutineCatalog, int64, error)
	ListCourses(ctx context.Context, catalogID string) ([]model.CatalogCourse, error)
	Rename(ctx context.Context, catalog *model.RoutineCatalog, name string) error
	Delete(ctx context.Context, id string) error
}

type catalogRepo struct {
	db *gorm.DB
}

// NewCatalogRepo 创建 CatalogRepository 实例
func NewCatalogRepo(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db: db}
}

// Create 在同一事务中写入目录与全部课程行
func (r *catalogRepo) Create(ctx context.Context, catalog *model.RoutineCatalog, courses []model.Course) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog.CourseCount = len(courses)
		if err := tx.Omit("Courses").Create(catalog).Error; err != nil {
			return err
		}
		if len(courses) == 0 {
			return nil
		}

		rows := make([]model.CatalogCourse, 0, len(courses))
		for i, c := range courses {
			rows = append(rows, model.NewCatalogCourse(catalog.CatalogID, i, c))
		}
		return tx.CreateInBatches(&rows, catalogCourseBatchSize).Error
	})
}

func (r *catalogRepo) GetByID(ctx context.Context, id string) (*model.RoutineCatalog, error) {
	var catalog model.RoutineCatalog
	err := r.db.WithContext(ctx).
		Where("catalog_id = ?", id).
		First(&catalog).Error
	if err != nil {
		return nil, err
	}
	return &catalog, nil
}

// GetByHash 按正文哈希查找最近保存的目录
func (r *catalogRepo) GetByHash(ctx context.Context, hash string) (*model.RoutineCatalog, error) {
	var catalog model.RoutineCatalog
	err := r.db.WithContext(ctx).
		Where("text_hash = ?", hash).
		Order("created_at DESC").
		First(&catalog).Error
	if err != nil {
		return nil, err
	}
	return &catalog, nil
}

// List 分页列出目录；program 非空时只返回包含该项目的目录
func (r *catalogRepo) List(ctx context.Context, program string, offset, limit int) ([]model.RoutineCatalog, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.RoutineCatalog{})
	if program != "" {
		db = db.Where("? = ANY(programs)", program)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var catalogs []model.RoutineCatalog
	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&catalogs).Error
	return catalogs, total, err
}

// ListCourses 按 PDF 中的出现顺序返回课程行
func (r *catalogRepo) ListCourses(ctx context.Context, catalogID string) ([]model.CatalogCourse, error) {
	var courses []model.CatalogCourse
	err := r.db.WithContext(ctx).
		Where("catalog_id = ?", catalogID).
		Order("position ASC").
		Find(&courses).Error
	return courses, err
}

// Rename 乐观锁更新目录名称
func (r *catalogRepo) Rename(ctx context.Context, catalog *model.RoutineCatalog, name string) error {
	oldVersion := catalog.Version
	result := r.db.WithContext(ctx).
		Model(&model.RoutineCatalog{}).
		Where("catalog_id = ? AND version = ?", catalog.CatalogID, oldVersion).
		Updates(map[string]interface{}{
			"name":       name,
			"version":    oldVersion + 1,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	catalog.Name = name
	catalog.Version = oldVersion + 1
	return nil
}

// Delete 软删除目录；课程行随目录保留，硬删除时由外键级联清理
func (r *catalogRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("catalog_id = ?", id).
		Delete(&model.RoutineCatalog{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}
