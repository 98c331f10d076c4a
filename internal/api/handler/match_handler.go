package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-match-go/internal/config"
	"resume-match-go/internal/constants"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/types"
)

// MatchHandler 匹配处理器：同步评分接口与异步匹配消费者
type MatchHandler struct {
	cfg     *config.Config
	storage *storage.Storage
	engine  *matcher.Engine
}

// NewMatchHandler 创建匹配处理器
func NewMatchHandler(cfg *config.Config, storage *storage.Storage, engine *matcher.Engine) *MatchHandler {
	return &MatchHandler{
		cfg:     cfg,
		storage: storage,
		engine:  engine,
	}
}

// MatchScoreResponse 单对评分响应
type MatchScoreResponse struct {
	ResumeID string            `json:"resume_id"`
	JobID    string            `json:"job_id"`
	Score    *types.MatchScore `json:"score"`
	Cached   bool              `json:"cached"`
}

// RankedJobResponse 排序结果中的一项
type RankedJobResponse struct {
	JobID string            `json:"job_id"`
	Title string            `json:"title"`
	Score *types.MatchScore `json:"score"`
}

// MatchRankResponse 排序响应
type MatchRankResponse struct {
	ResumeID string              `json:"resume_id"`
	Jobs     []RankedJobResponse `json:"jobs"`
}

// HandleScorePair 计算一对简历与岗位的匹配得分，Redis缓存优先
func (h *MatchHandler) HandleScorePair(ctx context.Context, resumeID, jobID string) (*MatchScoreResponse, error) {
	// 缓存命中直接返回
	if h.storage.Redis != nil {
		if cached, err := h.storage.Redis.GetMatchScore(ctx, resumeID, jobID); err == nil {
			return &MatchScoreResponse{
				ResumeID: resumeID,
				JobID:    jobID,
				Score:    cached,
				Cached:   true,
			}, nil
		} else if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn().Err(err).Str("resume_id", resumeID).Str("job_id", jobID).
				Msg("读取匹配得分缓存失败")
		}
	}

	resumeModel, err := h.storage.MySQL.GetResumeByID(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	resume, err := resumeModelToRecord(resumeModel)
	if err != nil {
		return nil, err
	}

	jobModel, err := h.storage.MySQL.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job, err := jobModelToRecord(jobModel)
	if err != nil {
		return nil, err
	}

	score, err := h.engine.Score(ctx, resume, job)
	if err != nil {
		return nil, fmt.Errorf("计算匹配得分失败: %w", err)
	}

	if h.storage.Redis != nil {
		if err := h.storage.Redis.SetMatchScore(ctx, resumeID, jobID, score); err != nil {
			logger.Warn().Err(err).Str("resume_id", resumeID).Str("job_id", jobID).
				Msg("写入匹配得分缓存失败")
		}
	}

	return &MatchScoreResponse{
		ResumeID: resumeID,
		JobID:    jobID,
		Score:    score,
		Cached:   false,
	}, nil
}

// HandleRank 对所有ACTIVE岗位评分并按总分降序返回
func (h *MatchHandler) HandleRank(ctx context.Context, resumeID string) (*MatchRankResponse, error) {
	resumeModel, err := h.storage.MySQL.GetResumeByID(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	resume, err := resumeModelToRecord(resumeModel)
	if err != nil {
		return nil, err
	}

	jobModels, err := h.storage.MySQL.ListActiveJobs(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make([]*types.JobRecord, 0, len(jobModels))
	for i := range jobModels {
		job, err := jobModelToRecord(&jobModels[i])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	ranked, err := h.engine.Rank(ctx, resume, jobs)
	if err != nil {
		return nil, fmt.Errorf("计算匹配排序失败: %w", err)
	}

	response := &MatchRankResponse{
		ResumeID: resumeID,
		Jobs:     make([]RankedJobResponse, 0, len(ranked)),
	}
	for _, item := range ranked {
		response.Jobs = append(response.Jobs, RankedJobResponse{
			JobID: item.Job.JobID,
			Title: item.Job.Title,
			Score: item.Score,
		})
	}
	return response, nil
}

// StartMatchConsumer 启动匹配计算消费者：简历入库事件到达后，
// 对目标岗位（或全部ACTIVE岗位）计算得分并批量落库
func (h *MatchHandler) StartMatchConsumer(ctx context.Context) error {
	mq := h.storage.RabbitMQ
	if mq == nil {
		return fmt.Errorf("RabbitMQ未初始化，无法启动匹配消费者")
	}

	if err := mq.EnsureExchange(h.cfg.RabbitMQ.MatchEventsExchange, "direct", true); err != nil {
		return fmt.Errorf("确保交换机存在失败: %w", err)
	}
	if err := mq.EnsureQueue(h.cfg.RabbitMQ.MatchQueue, true); err != nil {
		return fmt.Errorf("确保队列存在失败: %w", err)
	}
	if err := mq.BindQueue(
		h.cfg.RabbitMQ.MatchQueue,
		h.cfg.RabbitMQ.MatchEventsExchange,
		h.cfg.RabbitMQ.MatchNeededRoutingKey,
	); err != nil {
		return fmt.Errorf("绑定队列失败: %w", err)
	}

	workers := h.cfg.RabbitMQ.ConsumerWorkers["match_consumer_workers"]
	_, err := mq.StartConsumer(h.cfg.RabbitMQ.MatchQueue, h.cfg.RabbitMQ.PrefetchCount, workers,
		func(data []byte) bool {
			var message storage.MatchNeededMessage
			if err := json.Unmarshal(data, &message); err != nil {
				logger.Error().Err(err).Msg("解析匹配事件失败")
				return false
			}

			if err := h.processMatchEvent(ctx, message); err != nil {
				logger.Error().Err(err).Str("resume_id", message.ResumeID).Msg("处理匹配事件失败")
				return false
			}
			return true
		})
	if err != nil {
		return fmt.Errorf("启动匹配消费者失败: %w", err)
	}
	return nil
}

// processMatchEvent 对一条匹配事件计算并落库所有得分
func (h *MatchHandler) processMatchEvent(ctx context.Context, message storage.MatchNeededMessage) error {
	resumeModel, err := h.storage.MySQL.GetResumeByID(ctx, message.ResumeID)
	if err != nil {
		return fmt.Errorf("读取简历记录失败: %w", err)
	}
	resume, err := resumeModelToRecord(resumeModel)
	if err != nil {
		return err
	}

	// 指定了目标岗位时只算这一对，否则对全部ACTIVE岗位计算
	var jobModels []models.Job
	if message.TargetJobID != "" {
		jobModel, err := h.storage.MySQL.GetJobByID(ctx, message.TargetJobID)
		if err != nil {
			return fmt.Errorf("读取目标岗位失败: %w", err)
		}
		jobModels = []models.Job{*jobModel}
	} else {
		jobModels, err = h.storage.MySQL.ListActiveJobs(ctx)
		if err != nil {
			return err
		}
	}

	if len(jobModels) == 0 {
		logger.Info().Str("resume_id", message.ResumeID).Msg("无ACTIVE岗位，跳过匹配计算")
		return h.storage.MySQL.UpdateResumeProcessingStatus(ctx, message.ResumeID, constants.StatusMatchComputed)
	}

	jobs := make([]*types.JobRecord, 0, len(jobModels))
	for i := range jobModels {
		job, err := jobModelToRecord(&jobModels[i])
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
	}

	ranked, err := h.engine.Rank(ctx, resume, jobs)
	if err != nil {
		return fmt.Errorf("计算匹配得分失败: %w", err)
	}

	now := time.Now()
	results := make([]models.MatchResult, 0, len(ranked))
	for _, item := range ranked {
		results = append(results, models.MatchResult{
			ResumeID:        message.ResumeID,
			JobID:           item.Job.JobID,
			TotalScore:      item.Score.TotalScore,
			KeywordScore:    item.Score.KeywordScore,
			SemanticScore:   item.Score.SemanticScore,
			ExperienceScore: item.Score.ExperienceScore,
			EvaluatedAt:     &now,
		})
	}

	if err := h.storage.MySQL.BatchUpsertMatchResults(ctx, results); err != nil {
		return err
	}

	if err := h.storage.MySQL.UpdateResumeProcessingStatus(ctx, message.ResumeID, constants.StatusMatchComputed); err != nil {
		return fmt.Errorf("更新简历状态失败: %w", err)
	}

	logger.Info().
		Str("resume_id", message.ResumeID).
		Int("jobs_scored", len(results)).
		Msg("匹配计算完成")
	return nil
}
