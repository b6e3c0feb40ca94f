package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Parser: ParserConfig{Programs: []string{"BSCSE", "BSDS"}},
		Planner: PlannerConfig{
			SessionTTL:        time.Hour,
			MaxSessions:       10,
			MaxGeneratedPlans: 5,
		},
		Upload: UploadConfig{MaxPDFSize: 1024},
		Export: ExportConfig{Timezone: "Asia/Dhaka", Weeks: 14},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("默认配置加载失败: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("期望端口 8080，实际 %d", cfg.Server.Port)
	}
	if len(cfg.Parser.Programs) != 2 || cfg.Parser.Programs[0] != "BSCSE" {
		t.Errorf("期望默认项目代码 [BSCSE BSDS]，实际 %v", cfg.Parser.Programs)
	}
	if cfg.Planner.SessionTTL != 2*time.Hour {
		t.Errorf("期望会话 TTL 2h，实际 %v", cfg.Planner.SessionTTL)
	}
	if len(cfg.Parser.FooterMarkers) == 0 {
		t.Error("默认页脚标记不应为空")
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("合法配置校验失败: %v", err)
	}

	cases := map[string]func(c *Config){
		"端口越界":     func(c *Config) { c.Server.Port = 70000 },
		"项目代码为空":   func(c *Config) { c.Parser.Programs = nil },
		"项目代码含空项":  func(c *Config) { c.Parser.Programs = []string{"BSCSE", " "} },
		"会话TTL为0":  func(c *Config) { c.Planner.SessionTTL = 0 },
		"会话上限为0":   func(c *Config) { c.Planner.MaxSessions = 0 },
		"生成方案上限为0": func(c *Config) { c.Planner.MaxGeneratedPlans = 0 },
		"PDF大小为0":  func(c *Config) { c.Upload.MaxPDFSize = 0 },
		"导出周数为0":   func(c *Config) { c.Export.Weeks = 0 },
	}
	for name, mutate := range cases {
		c := validConfig()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: 期望校验失败", name)
		}
	}
}
