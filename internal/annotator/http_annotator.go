package annotator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"resume-match-go/internal/types"
)

// HTTPAnnotator 通过HTTP访问语言标注服务（如spaCy封装的标注服务器）。
// 语言模型在服务端加载一次后常驻，客户端侧通过warmup保证首次调用前
// 模型就绪；加载之后的标注请求对并发读是安全的。
type HTTPAnnotator struct {
	// ServerURL 标注服务地址，例如 http://localhost:8000
	ServerURL string
	// Client HTTP客户端，可配置超时等参数
	Client *http.Client
	// 请求服务端加载的语言模型名
	language string
	// 日志记录
	logger *log.Logger

	// 首次使用时触发一次模型预热
	warmupOnce sync.Once
	warmupErr  error
}

// Option 定义配置选项函数
type Option func(*HTTPAnnotator)

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) Option {
	return func(a *HTTPAnnotator) {
		a.Client.Timeout = timeout
	}
}

// WithLanguage 配置服务端加载的语言模型
func WithLanguage(language string) Option {
	return func(a *HTTPAnnotator) {
		a.language = language
	}
}

// WithHTTPClient 配置自定义HTTP客户端
func WithHTTPClient(client *http.Client) Option {
	return func(a *HTTPAnnotator) {
		a.Client = client
	}
}

// WithAnnotatorLogger 配置自定义日志记录器
func WithAnnotatorLogger(logger *log.Logger) Option {
	return func(a *HTTPAnnotator) {
		a.logger = logger
	}
}

// 确保HTTPAnnotator实现了Annotator接口
var _ Annotator = (*HTTPAnnotator)(nil)

// NewHTTPAnnotator 创建一个新的HTTP标注客户端
func NewHTTPAnnotator(serverURL string, options ...Option) *HTTPAnnotator {
	a := &HTTPAnnotator{
		ServerURL: serverURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		language: "en_core_web_sm",
		logger:   log.New(os.Stderr, "[Annotator] ", log.LstdFlags),
	}

	for _, option := range options {
		option(a)
	}

	return a
}

// Annotate 对一段原始文本做完整标注
func (a *HTTPAnnotator) Annotate(ctx context.Context, text string) (*types.Annotation, error) {
	// 首次调用先预热，让服务端加载语言模型；只做一次
	a.warmupOnce.Do(func() {
		a.warmupErr = a.warmup(ctx)
	})
	if a.warmupErr != nil {
		// 预热失败不终止：标注请求本身也会触发服务端加载，只是首次更慢
		a.logger.Printf("标注服务预热失败: %v, 继续发起标注请求", a.warmupErr)
	}

	startTime := time.Now()

	url := fmt.Sprintf("%s/annotate", a.ServerURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader([]byte(text)))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	if a.language != "" {
		req.Header.Set("X-Annotator-Model", a.language)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求到标注服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("标注服务返回错误状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取标注服务响应失败: %w", err)
	}

	var annotation types.Annotation
	if err := json.Unmarshal(body, &annotation); err != nil {
		return nil, fmt.Errorf("解析标注JSON失败: %w", err)
	}

	a.logger.Printf("标注完成: %d 词元, %d 句, %d 实体 (用时 %.2f秒)",
		len(annotation.Tokens), len(annotation.Sentences), len(annotation.Entities),
		time.Since(startTime).Seconds())

	return &annotation, nil
}

// warmup 请求服务端预加载语言模型
func (a *HTTPAnnotator) warmup(ctx context.Context) error {
	url := fmt.Sprintf("%s/warmup", a.ServerURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, nil)
	if err != nil {
		return fmt.Errorf("创建预热请求失败: %w", err)
	}
	if a.language != "" {
		req.Header.Set("X-Annotator-Model", a.language)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("发送预热请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("标注服务预热返回状态码: %d", resp.StatusCode)
	}

	a.logger.Printf("标注服务预热完成 (模型: %s)", a.language)
	return nil
}
