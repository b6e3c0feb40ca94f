package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Abdullah-Shahriar/UIU-Hub/config"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/dto"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/repository"
	"github.com/Abdullah-Shahriar/UIU-Hub/pkg/pdftext"
)

// ── 课表解析模块业务错误 ──

var (
	ErrRoutineEmptyText       = errors.New("课表文本为空")
	ErrPDFTooLarge            = errors.New("PDF 文件过大")
	ErrDemoUnavailable        = errors.New("未配置示例课表或文件不可读")
	ErrCatalogStorageDisabled = errors.New("未启用数据库，无法使用课表目录")
)

const defaultCatalogName = "Class Routine"

// ParseCache 解析结果缓存（Redis 实现，见 pkg/redis）
type ParseCache interface {
	GetParseResult(ctx context.Context, hash string) ([]byte, error)
	SetParseResult(ctx context.Context, hash string, data []byte, ttl time.Duration) error
}

// ParseOptions 解析后的处理选项
type ParseOptions struct {
	Save bool   // 保存为课表目录
	Name string // 目录名称
}

// RoutineService 课表解析业务接口
//
// 解析失败（ErrMissingHeader / ErrNoCoursesExtracted）时同时返回非 nil 的响应，
// 其中带有块数量与警告，供调用方展示。
type RoutineService interface {
	ParseText(ctx context.Context, text string, opts ParseOptions) (*dto.ParseRoutineResponse, error)
	ParsePDF(ctx context.Context, r io.ReaderAt, size int64, opts ParseOptions) (*dto.ParseRoutineResponse, error)
	Demo(ctx context.Context) (*dto.ParseRoutineResponse, error)
}

type routineService struct {
	parser    *RoutineParser
	extractor pdftext.Extractor
	cache     ParseCache
	repo      *repository.Repository
	cfg       *config.Config
	logger    *zap.Logger
}

// NewRoutineService 创建 RoutineService 实例
// cache 与 repo 可为 nil：分别表示不使用缓存、不支持保存目录
func NewRoutineService(
	cfg *config.Config,
	parser *RoutineParser,
	extractor pdftext.Extractor,
	cache ParseCache,
	repo *repository.Repository,
	logger *zap.Logger,
) RoutineService {
	return &routineService{
		parser:    parser,
		extractor: extractor,
		cache:     cache,
		repo:      repo,
		cfg:       cfg,
		logger:    logger,
	}
}

// ────────────────────── ParseText ──────────────────────

func (s *routineService) ParseText(ctx context.Context, text string, opts ParseOptions) (*dto.ParseRoutineResponse, error) {
	cleaned := pdftext.Clean(text)
	if strings.TrimSpace(cleaned) == "" {
		return nil, ErrRoutineEmptyText
	}

	hash := textHash(cleaned)
	result, cached := s.cachedResult(ctx, hash)
	if !cached {
		var err error
		result, err = s.parser.Parse(cleaned)
		if err != nil {
			return toParseResponse(result, false), err
		}
		s.storeResult(ctx, hash, result)
	}

	resp := toParseResponse(result, cached)
	if opts.Save {
		catalogID, err := s.saveCatalog(ctx, hash, opts.Name, result)
		if err != nil {
			return nil, err
		}
		resp.CatalogID = catalogID
	}
	return resp, nil
}

// ────────────────────── ParsePDF ──────────────────────

func (s *routineService) ParsePDF(ctx context.Context, r io.ReaderAt, size int64, opts ParseOptions) (*dto.ParseRoutineResponse, error) {
	if size > s.cfg.Upload.MaxPDFSize {
		return nil, fmt.Errorf("%w: %d 字节（上限 %d）", ErrPDFTooLarge, size, s.cfg.Upload.MaxPDFSize)
	}

	text, err := s.extractor.Extract(ctx, r, size)
	if err != nil {
		if errors.Is(err, pdftext.ErrEmptyText) {
			return nil, ErrRoutineEmptyText
		}
		s.logger.Warn("PDF 文本提取失败", zap.Error(err))
		return nil, err
	}

	return s.ParseText(ctx, text, opts)
}

// ────────────────────── Demo ──────────────────────

func (s *routineService) Demo(ctx context.Context) (*dto.ParseRoutineResponse, error) {
	path := s.cfg.Planner.DemoPDFPath
	if path == "" {
		return nil, ErrDemoUnavailable
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("读取示例课表失败", zap.String("path", path), zap.Error(err))
		return nil, ErrDemoUnavailable
	}

	return s.ParsePDF(ctx, bytes.NewReader(data), int64(len(data)), ParseOptions{})
}

// ── 缓存 ──

func (s *routineService) cachedResult(ctx context.Context, hash string) (*ParseResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.GetParseResult(ctx, hash)
	if err != nil {
		s.logger.Warn("读取解析缓存失败", zap.Error(err))
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var result ParseResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("解析缓存内容损坏", zap.String("hash", hash), zap.Error(err))
		return nil, false
	}
	return &result, true
}

func (s *routineService) storeResult(ctx context.Context, hash string, result *ParseResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("序列化解析结果失败", zap.Error(err))
		return
	}
	if err := s.cache.SetParseResult(ctx, hash, data, s.cfg.Redis.ParseCacheTTL); err != nil {
		s.logger.Warn("写入解析缓存失败", zap.Error(err))
	}
}

// ── 保存目录 ──

// saveCatalog 保存解析结果；相同正文已保存过时复用已有目录
func (s *routineService) saveCatalog(ctx context.Context, hash, name string, result *ParseResult) (string, error) {
	if s.repo == nil {
		return "", ErrCatalogStorageDisabled
	}

	existing, err := s.repo.Catalog.GetByHash(ctx, hash)
	if err == nil {
		return existing.CatalogID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询课表目录失败", zap.Error(err))
		return "", err
	}

	warnings, err := json.Marshal(toBlockWarnings(result.Warnings))
	if err != nil {
		return "", err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultCatalogName
	}
	catalog := &model.RoutineCatalog{
		Name:       name,
		Format:     string(result.Format),
		Programs:   model.StringArray(result.Programs),
		BlockCount: result.BlockCount,
		TextHash:   hash,
		Warnings:   datatypes.JSON(warnings),
	}
	if err := s.repo.Catalog.Create(ctx, catalog, result.Courses); err != nil {
		s.logger.Error("保存课表目录失败", zap.Error(err))
		return "", err
	}

	s.logger.Info("课表目录已保存",
		zap.String("catalog_id", catalog.CatalogID),
		zap.Int("courses", catalog.CourseCount),
	)
	return catalog.CatalogID, nil
}

// ── 内部辅助方法 ──

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func toParseResponse(result *ParseResult, cached bool) *dto.ParseRoutineResponse {
	if result == nil {
		return nil
	}
	return &dto.ParseRoutineResponse{
		Format:     string(result.Format),
		BlockCount: result.BlockCount,
		Programs:   result.Programs,
		Courses:    result.Courses,
		Warnings:   toBlockWarnings(result.Warnings),
		Cached:     cached,
	}
}

func toBlockWarnings(errs []BlockError) []dto.BlockWarning {
	out := make([]dto.BlockWarning, 0, len(errs))
	for _, e := range errs {
		out = append(out, dto.BlockWarning{
			Block:   e.Block,
			Stage:   e.Stage,
			Snippet: e.Snippet,
			Reason:  e.Reason,
		})
	}
	return out
}
