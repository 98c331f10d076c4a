package ingest // 岗位抓取：从招聘页面URL抓取并解析出岗位记录

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofrs/uuid/v5"

	"resume-match-go/internal/types"
)

const defaultFetchTimeout = 15 * time.Second

// ScrapedJob 从页面解析出的岗位信息
type ScrapedJob struct {
	JobID              string
	Title              string
	Company            string
	Location           string
	Description        string
	Skills             []string
	RequiredExperience string
	SalaryRange        string
	SourceURL          string
}

// JobScraper 抓取并解析招聘页面
type JobScraper struct {
	client *http.Client
}

// ScraperOption 定义配置选项函数
type ScraperOption func(*JobScraper)

// WithScraperTimeout 覆盖抓取超时
func WithScraperTimeout(timeout time.Duration) ScraperOption {
	return func(s *JobScraper) {
		s.client.Timeout = timeout
	}
}

// WithScraperHTTPClient 注入自定义HTTP客户端（测试用）
func WithScraperHTTPClient(client *http.Client) ScraperOption {
	return func(s *JobScraper) {
		s.client = client
	}
}

// NewJobScraper 创建岗位抓取器
func NewJobScraper(options ...ScraperOption) *JobScraper {
	s := &JobScraper{
		client: &http.Client{Timeout: defaultFetchTimeout},
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// FetchJob 抓取URL并解析出岗位记录
func (s *JobScraper) FetchJob(ctx context.Context, pageURL string) (*ScrapedJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建抓取请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "resume-match-bot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("抓取岗位页面失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("抓取岗位页面返回非预期状态码: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解析岗位页面HTML失败: %w", err)
	}

	job, err := s.parseDocument(doc, pageURL)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ParseJobHTML 从HTML字符串解析岗位记录（测试与离线导入用）
func (s *JobScraper) ParseJobHTML(htmlContent, pageURL string) (*ScrapedJob, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("解析岗位页面HTML失败: %w", err)
	}
	return s.parseDocument(doc, pageURL)
}

// parseDocument 按选择器优先级提取各字段。
// 选择器覆盖常见招聘页面结构：显式class优先，通用标签兜底。
func (s *JobScraper) parseDocument(doc *goquery.Document, pageURL string) (*ScrapedJob, error) {
	title := firstText(doc,
		".job-title",
		"h1[class*=title]",
		"meta[property='og:title']",
		"h1",
	)
	if title == "" {
		return nil, fmt.Errorf("页面未找到岗位标题: %s", pageURL)
	}

	description := firstText(doc,
		".job-description",
		"div[class*=description]",
		"section[class*=description]",
		"meta[name=description]",
	)

	company := firstText(doc,
		".company-name",
		"span[class*=company]",
		"meta[property='og:site_name']",
	)

	location := firstText(doc,
		".job-location",
		"span[class*=location]",
	)

	salary := firstText(doc,
		".salary-range",
		"span[class*=salary]",
	)

	experience := firstText(doc,
		".required-experience",
		"span[class*=experience]",
	)

	// 技能列表：专用列表项优先，找不到时从逗号分隔的技能行解析
	var skills []string
	doc.Find(".job-skills li, ul[class*=skill] li").Each(func(_ int, sel *goquery.Selection) {
		skill := strings.ToLower(strings.TrimSpace(sel.Text()))
		if skill != "" {
			skills = append(skills, skill)
		}
	})
	if len(skills) == 0 {
		if raw := firstText(doc, ".job-skills", "div[class*=skill]"); raw != "" {
			skills = types.SplitSkills(raw)
		}
	}

	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成岗位UUID失败: %w", err)
	}

	return &ScrapedJob{
		JobID:              newUUID.String(),
		Title:              title,
		Company:            company,
		Location:           location,
		Description:        description,
		Skills:             dedupSkills(skills),
		RequiredExperience: experience,
		SalaryRange:        salary,
		SourceURL:          pageURL,
	}, nil
}

// firstText 按顺序尝试选择器，返回第一个非空文本。
// meta 选择器取 content 属性。
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		var text string
		if strings.HasPrefix(selector, "meta") {
			text, _ = sel.Attr("content")
		} else {
			text = sel.Text()
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return normalizeSpace(text)
		}
	}
	return ""
}

// normalizeSpace 折叠连续空白为单个空格
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// dedupSkills 去重并保持首次出现顺序
func dedupSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	result := make([]string, 0, len(skills))
	for _, skill := range skills {
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		result = append(result, skill)
	}
	return result
}
