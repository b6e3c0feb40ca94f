// Package pdftext 从 PDF 中提取纯文本，供课表解析器使用。
//
// 只做平铺文本提取，不保留版面信息。
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidPDF = errors.New("无法读取 PDF 文件")
	ErrEmptyText  = errors.New("PDF 中没有可提取的文本")
)

// Extractor PDF 文本提取接口
type Extractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

type extractor struct {
	logger *zap.Logger
}

// NewExtractor 创建基于 ledongthuc/pdf 的文本提取器
func NewExtractor(logger *zap.Logger) Extractor {
	return &extractor{logger: logger}
}

// Extract 逐页提取文本，页与页之间以换行分隔
//
// 单页提取失败只记录日志并跳过；全部页面都没有文本时返回 ErrEmptyText。
func (e *extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (text string, err error) {
	// 第三方解析器遇到损坏的文件可能 panic
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("PDF 解析异常", zap.Any("panic", rec))
			text, err = "", fmt.Errorf("%w: %v", ErrInvalidPDF, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	var buf bytes.Buffer
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("跳过无法提取文本的页面", zap.Int("page", i), zap.Error(err))
			continue
		}
		buf.WriteString(content)
		buf.WriteByte('\n')
	}

	cleaned := Clean(buf.String())
	if strings.TrimSpace(cleaned) == "" {
		return "", ErrEmptyText
	}

	e.logger.Debug("PDF 文本提取完成", zap.Int("pages", pages), zap.Int("chars", len(cleaned)))
	return cleaned, nil
}

// Clean NFC 归一化并去除零宽字符，不可见字符会破坏正则匹配
func Clean(text string) string {
	text = norm.NFC.String(text)
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff', '\u00ad':
			return -1
		case '\u00a0':
			return ' '
		}
		return r
	}, text)
}
