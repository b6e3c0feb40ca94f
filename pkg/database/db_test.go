package database

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"debug": gormlogger.Info,
		"info":  gormlogger.Warn,
		"warn":  gormlogger.Warn,
		"error": gormlogger.Error,
		"":      gormlogger.Error,
	}
	for in, want := range tests {
		if got := gormLogLevel(in); got != want {
			t.Errorf("gormLogLevel(%q) 期望 %v, 实际 %v", in, want, got)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("读取内嵌迁移目录失败: %v", err)
	}
	if len(entries) == 0 || len(entries)%2 != 0 {
		t.Errorf("迁移文件应成对出现（up/down），实际 %d 个", len(entries))
	}
}

func TestZapWriter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := zapWriter{sugar: zap.New(core).Sugar()}

	w.Printf("SLOW SQL >= %v [%d rows] %s", "200ms", 3, "SELECT 1")

	if logs.Len() != 1 {
		t.Fatalf("期望 1 条日志，实际 %d", logs.Len())
	}
	if got := logs.All()[0].Message; got != "SLOW SQL >= 200ms [3 rows] SELECT 1" {
		t.Errorf("日志内容不符: %q", got)
	}
}
