package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigFromFile 从YAML文件加载，缺失字段补默认值
func TestLoadConfigFromFile(t *testing.T) {
	content := `
server:
  address: ":9090"
extractor:
  skill_vocabulary: ["go", "kafka"]
matcher:
  weights:
    keyword: 0.5
    semantic: 0.3
    experience: 0.2
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// 显式配置的字段保持原样
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, []string{"go", "kafka"}, cfg.Extractor.SkillVocabulary)
	assert.Equal(t, 0.5, cfg.Matcher.Weights.Keyword)
	assert.Equal(t, 0.3, cfg.Matcher.Weights.Semantic)

	// 缺失字段由默认值补齐
	assert.Equal(t, 1000, cfg.Extractor.ExperienceMaxLen)
	assert.Equal(t, 500, cfg.Extractor.EducationMaxLen)
	assert.Equal(t, 5, cfg.Extractor.NameScanLines)
	assert.NotEmpty(t, cfg.Extractor.ExperienceKeywords)
	assert.NotEmpty(t, cfg.Extractor.EducationKeywords)
	assert.Equal(t, "5s", cfg.RabbitMQ.RetryInterval)
	assert.Equal(t, 30, cfg.Annotator.TimeoutSeconds)
}

// TestLoadConfigMissingFileInTest 测试环境下找不到文件时回退默认配置
func TestLoadConfigMissingFileInTest(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err, "go test 环境下应回退到默认配置而不是报错")
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 0.4, cfg.Matcher.Weights.Keyword)
	assert.Equal(t, 0.4, cfg.Matcher.Weights.Semantic)
	assert.Equal(t, 0.2, cfg.Matcher.Weights.Experience)
	assert.NotEmpty(t, cfg.Extractor.SkillVocabulary)
	assert.Equal(t, "resume.match.exchange", cfg.RabbitMQ.MatchEventsExchange)
	assert.Equal(t, "resume.match.needed", cfg.RabbitMQ.MatchNeededRoutingKey)
	assert.Equal(t, "q.resume_match", cfg.RabbitMQ.MatchQueue)
}

// TestLoadConfigInvalidYAML 非法YAML报错
func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: valid"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

// TestLoadConfigEnvOverride 环境变量覆盖文件配置
func TestLoadConfigEnvOverride(t *testing.T) {
	content := `
annotator:
  server_url: "http://file-value:8000"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("ANNOTATOR_SERVER_URL", "http://env-value:8000")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env-value:8000", cfg.Annotator.ServerURL)
}

// TestWeightsDefaultWhenAllZero 权重全零视为未配置，回退默认值
func TestWeightsDefaultWhenAllZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":8080\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.4, cfg.Matcher.Weights.Keyword)
	assert.Equal(t, 0.2, cfg.Matcher.Weights.Experience)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 10*time.Second, GetDuration("10s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute), "空串取默认值")
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute), "非法值取默认值")
}
