package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"resume-match-go/internal/config"
	"resume-match-go/internal/ingest"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/types"
)

// JobHandler 岗位处理器：JSON直传与URL抓取两条入库路径
type JobHandler struct {
	cfg     *config.Config
	storage *storage.Storage
	scraper *ingest.JobScraper
}

// NewJobHandler 创建岗位处理器
func NewJobHandler(cfg *config.Config, storage *storage.Storage, scraper *ingest.JobScraper) *JobHandler {
	return &JobHandler{
		cfg:     cfg,
		storage: storage,
		scraper: scraper,
	}
}

// JobUpsertRequest 岗位创建/更新请求
type JobUpsertRequest struct {
	JobID              string   `json:"job_id"` // 为空时生成新ID
	Title              string   `json:"title"`
	Company            string   `json:"company"`
	Location           string   `json:"location"`
	Description        string   `json:"description"`
	Skills             []string `json:"skills"`
	RequiredExperience string   `json:"required_experience"`
	SalaryRange        string   `json:"salary_range"`
	Status             string   `json:"status"`
}

// JobUpsertResponse 岗位写入响应
type JobUpsertResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobIngestRequest 岗位抓取请求
type JobIngestRequest struct {
	URL string `json:"url"`
}

// HandleUpsertJob 创建或更新岗位记录
func (h *JobHandler) HandleUpsertJob(ctx context.Context, req *JobUpsertRequest) (*JobUpsertResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("岗位标题不能为空")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("岗位描述不能为空")
	}

	jobID := req.JobID
	if jobID == "" {
		uuidV7, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("生成岗位UUID失败: %w", err)
		}
		jobID = uuidV7.String()
	}

	status := req.Status
	if status == "" {
		status = "ACTIVE"
	}

	// 技能统一小写去重
	skills := make([]string, 0, len(req.Skills))
	seen := make(map[string]struct{}, len(req.Skills))
	for _, s := range req.Skills {
		skill := strings.ToLower(strings.TrimSpace(s))
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		skills = append(skills, skill)
	}

	skillsJSON, err := models.StringSliceToJSON(skills)
	if err != nil {
		return nil, fmt.Errorf("序列化岗位技能失败: %w", err)
	}

	job := &models.Job{
		JobID:              jobID,
		JobTitle:           req.Title,
		Company:            req.Company,
		Location:           req.Location,
		JobDescriptionText: req.Description,
		SkillsJSON:         skillsJSON,
		RequiredExperience: req.RequiredExperience,
		SalaryRange:        req.SalaryRange,
		Status:             status,
	}

	if err := h.storage.MySQL.UpsertJob(ctx, job); err != nil {
		return nil, err
	}

	// 缓存描述文本，匹配消费者读缓存优先。失败只告警
	if h.storage.Redis != nil {
		if err := h.storage.Redis.SetJobDescriptionText(ctx, jobID, req.Description); err != nil {
			logger.Warn().Err(err).Str("job_id", jobID).Msg("缓存岗位描述文本失败")
		}
	}

	logger.Info().Str("job_id", jobID).Str("title", req.Title).Msg("岗位记录已写入")
	return &JobUpsertResponse{JobID: jobID, Status: status}, nil
}

// HandleIngestJob 抓取岗位页面并入库
func (h *JobHandler) HandleIngestJob(ctx context.Context, req *JobIngestRequest) (*JobUpsertResponse, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("抓取URL不能为空")
	}

	scraped, err := h.scraper.FetchJob(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	skillsJSON, err := models.StringSliceToJSON(scraped.Skills)
	if err != nil {
		return nil, fmt.Errorf("序列化岗位技能失败: %w", err)
	}

	job := &models.Job{
		JobID:              scraped.JobID,
		JobTitle:           scraped.Title,
		Company:            scraped.Company,
		Location:           scraped.Location,
		JobDescriptionText: scraped.Description,
		SkillsJSON:         skillsJSON,
		RequiredExperience: scraped.RequiredExperience,
		SalaryRange:        scraped.SalaryRange,
		SourceURL:          scraped.SourceURL,
		Status:             "ACTIVE",
	}

	if err := h.storage.MySQL.UpsertJob(ctx, job); err != nil {
		return nil, err
	}

	if h.storage.Redis != nil {
		if err := h.storage.Redis.SetJobDescriptionText(ctx, scraped.JobID, scraped.Description); err != nil {
			logger.Warn().Err(err).Str("job_id", scraped.JobID).Msg("缓存岗位描述文本失败")
		}
	}

	logger.Info().
		Str("job_id", scraped.JobID).
		Str("title", scraped.Title).
		Str("url", req.URL).
		Msg("岗位页面抓取入库完成")
	return &JobUpsertResponse{JobID: scraped.JobID, Status: "ACTIVE"}, nil
}

// jobModelToRecord 数据库模型到匹配引擎输入的转换
func jobModelToRecord(job *models.Job) (*types.JobRecord, error) {
	skills, err := models.JSONToStringSlice(job.SkillsJSON)
	if err != nil {
		return nil, fmt.Errorf("反序列化岗位技能失败: %w", err)
	}
	return &types.JobRecord{
		JobID:              job.JobID,
		Title:              job.JobTitle,
		Skills:             skills,
		Description:        job.JobDescriptionText,
		RequiredExperience: job.RequiredExperience,
	}, nil
}
