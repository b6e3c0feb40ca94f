//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/repository"
	pkgerrors "github.com/Abdullah-Shahriar/UIU-Hub/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=uiu_hub_test sslmode=disable TimeZone=Asia/Dhaka"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	if err := testDB.AutoMigrate(&model.RoutineCatalog{}, &model.CatalogCourse{}); err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func sampleCourses() []model.Course {
	return []model.Course{
		{Program: "BSCSE", CourseCode: "CSE 2218", Title: "Data Structures", Section: "A",
			Room1: "101", Room2: "101", Day1: "Sat", Day2: "Tue", Time1: "9:00:AM - 10:30:AM",
			FacultyName: "Mr. John Doe", FacultyInitial: "JD", Credit: "3"},
		{Program: "BSDS", CourseCode: "DS 1101", Title: "Fundamentals of Data Science", Section: "B",
			Room1: "402", Room2: "403", Day1: "Mon", Day2: "Thu", Time1: "9:51:AM - 11:10:AM",
			FacultyName: "TBA", FacultyInitial: "TBA", Credit: "3"},
	}
}

// createCatalog 创建测试目录并返回清理函数
func createCatalog(t *testing.T, repo *repository.Repository) (*model.RoutineCatalog, func()) {
	t.Helper()
	catalog := &model.RoutineCatalog{
		Name:       fmt.Sprintf("测试目录-%d", time.Now().UnixNano()),
		Format:     "credit",
		Programs:   model.StringArray{"BSCSE", "BSDS"},
		BlockCount: 2,
		TextHash:   fmt.Sprintf("%064d", time.Now().UnixNano()),
		Warnings:   datatypes.JSON(`[]`),
	}
	if err := repo.Catalog.Create(context.Background(), catalog, sampleCourses()); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	return catalog, func() {
		testDB.Unscoped().Where("catalog_id = ?", catalog.CatalogID).Delete(&model.CatalogCourse{})
		testDB.Unscoped().Where("catalog_id = ?", catalog.CatalogID).Delete(&model.RoutineCatalog{})
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Create / Read
// ═══════════════════════════════════════════════════════════

func TestCatalog_CreateAndRead(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	catalog, cleanup := createCatalog(t, repo)
	defer cleanup()

	if catalog.CatalogID == "" {
		t.Fatal("创建后应回填 catalog_id")
	}
	if catalog.CourseCount != 2 {
		t.Errorf("course_count 期望 2，得到 %d", catalog.CourseCount)
	}

	got, err := repo.Catalog.GetByID(ctx, catalog.CatalogID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if len(got.Programs) != 2 || got.Programs[1] != "BSDS" {
		t.Errorf("programs 读取错误: %v", got.Programs)
	}

	byHash, err := repo.Catalog.GetByHash(ctx, catalog.TextHash)
	if err != nil || byHash.CatalogID != catalog.CatalogID {
		t.Errorf("GetByHash 应返回同一目录, err=%v", err)
	}

	rows, err := repo.Catalog.ListCourses(ctx, catalog.CatalogID)
	if err != nil {
		t.Fatalf("ListCourses 失败: %v", err)
	}
	if len(rows) != 2 || rows[0].Position != 0 || rows[1].ToCourse().CourseCode != "DS 1101" {
		t.Errorf("课程行顺序或内容错误: %+v", rows)
	}
}

func TestCatalog_ListByProgram(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	catalog, cleanup := createCatalog(t, repo)
	defer cleanup()

	items, total, err := repo.Catalog.List(ctx, "BSDS", 0, 100)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	found := false
	for _, c := range items {
		if c.CatalogID == catalog.CatalogID {
			found = true
		}
	}
	if !found || total < 1 {
		t.Errorf("按项目过滤应包含新建目录, total=%d", total)
	}

	_, total, err = repo.Catalog.List(ctx, "NOPE", 0, 100)
	if err != nil || total != 0 {
		t.Errorf("不存在的项目应返回 0 条, total=%d err=%v", total, err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock / Soft Delete
// ═══════════════════════════════════════════════════════════

func TestCatalog_RenameOptimisticLock(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	catalog, cleanup := createCatalog(t, repo)
	defer cleanup()

	// 模拟并发：获取两份副本
	copy1, _ := repo.Catalog.GetByID(ctx, catalog.CatalogID)
	copy2, _ := repo.Catalog.GetByID(ctx, catalog.CatalogID)

	if err := repo.Catalog.Rename(ctx, copy1, "Spring 253"); err != nil {
		t.Fatalf("第一次重命名应成功: %v", err)
	}
	if copy1.Version != 2 {
		t.Errorf("version 期望 2，得到 %d", copy1.Version)
	}

	err := repo.Catalog.Rename(ctx, copy2, "Fall 253")
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestCatalog_SoftDelete(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	catalog, cleanup := createCatalog(t, repo)
	defer cleanup()

	if err := repo.Catalog.Delete(ctx, catalog.CatalogID); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	_, err := repo.Catalog.GetByID(ctx, catalog.CatalogID)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("软删除后应查不到，得到: %v", err)
	}
	if err := repo.Catalog.Delete(ctx, catalog.CatalogID); !errors.Is(err, pkgerrors.ErrNoRowsAffected) {
		t.Errorf("重复删除应返回 ErrNoRowsAffected，得到: %v", err)
	}
}
