package handler

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"

	"resume-match-go/internal/config"
	"resume-match-go/internal/constants"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/types"
)

// ResumeHandler 简历处理器，负责协调简历的接收、提取与落库流程
type ResumeHandler struct {
	cfg       *config.Config
	storage   *storage.Storage
	extractor *extractor.Extractor
}

// NewResumeHandler 创建简历处理器
func NewResumeHandler(cfg *config.Config, storage *storage.Storage, ext *extractor.Extractor) *ResumeHandler {
	return &ResumeHandler{
		cfg:       cfg,
		storage:   storage,
		extractor: ext,
	}
}

// ResumeUploadResponse 简历上传响应
type ResumeUploadResponse struct {
	ResumeID string              `json:"resume_id"`
	Status   string              `json:"status"`
	Record   *types.ResumeRecord `json:"record,omitempty"`
}

// ResumeDetailResponse 简历查询响应
type ResumeDetailResponse struct {
	ResumeID         string              `json:"resume_id"`
	ProcessingStatus string              `json:"processing_status"`
	ExtractorVersion string              `json:"extractor_version"`
	Record           *types.ResumeRecord `json:"record"`
	CreatedAt        time.Time           `json:"created_at"`
}

// calculateMD5 计算字节内容的MD5十六进制串
func calculateMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// HandleResumeUpload 处理简历上传：去重 → 存储原始文档 → 提取 →
// 落库（与发件箱事件同事务）→ 返回结构化记录
func (h *ResumeHandler) HandleResumeUpload(ctx context.Context, reader io.Reader,
	filename string, targetJobID string, sourceChannel string) (*ResumeUploadResponse, error) {

	// 读取全部文本内容并计算MD5（reader只能读一次）
	textBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传内容失败: %w", err)
	}
	textMD5 := calculateMD5(textBytes)

	// Redis去重：相同文本的重复提交直接短路
	exists, err := h.storage.Redis.CheckRawTextMD5Exists(ctx, textMD5)
	if err != nil {
		logger.Error().Err(err).Str("md5", textMD5).Msg("查询Redis文本MD5去重集合失败")
		return nil, fmt.Errorf("检查文本重复性时Redis查询失败: %w", err)
	}
	if exists {
		logger.Info().Str("md5", textMD5).Str("filename", filename).Msg("检测到重复的简历文本，跳过处理")
		return &ResumeUploadResponse{
			ResumeID: "",
			Status:   "DUPLICATE_TEXT_SKIPPED",
		}, nil
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	resumeID := uuidV7.String()

	// 原始文档进对象存储
	originalKey, err := h.storage.MinIO.UploadOriginalDocument(ctx, resumeID, filename,
		bytes.NewReader(textBytes), int64(len(textBytes)))
	if err != nil {
		return nil, fmt.Errorf("上传原始文档到MinIO失败: %w", err)
	}

	// 同步提取结构化记录
	record, err := h.extractor.Extract(ctx, string(textBytes))
	if err != nil {
		if errors.Is(err, extractor.ErrEmptyDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("提取简历信息失败: %w", err)
	}

	// 规范化文本进对象存储
	normalizedText := extractor.NormalizeText(string(textBytes))
	normalizedKey, err := h.storage.MinIO.UploadNormalizedText(ctx, resumeID, normalizedText)
	if err != nil {
		return nil, fmt.Errorf("上传规范化文本到MinIO失败: %w", err)
	}

	skillsJSON, err := models.StringSliceToJSON(record.Skills)
	if err != nil {
		return nil, fmt.Errorf("序列化技能列表失败: %w", err)
	}

	resume := &models.Resume{
		ResumeID:              resumeID,
		Name:                  record.Name,
		Email:                 record.Email,
		Phone:                 record.Phone,
		SkillsJSON:            skillsJSON,
		ExperienceText:        record.Experience,
		EducationText:         record.Education,
		RawTextMD5:            textMD5,
		SourceChannel:         sourceChannel,
		OriginalFilename:      filename,
		OriginalFilePathOSS:   originalKey,
		NormalizedTextPathOSS: normalizedKey,
		ProcessingStatus:      constants.StatusPendingMatch,
		ExtractorVersion:      constants.DefaultExtractorVersion,
	}
	if targetJobID != "" {
		resume.TargetJobID = &targetJobID
	}

	// 简历记录与匹配事件在同一事务内写入，由发件箱中继异步投递
	err = h.storage.MySQL.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := h.storage.MySQL.CreateResume(ctx, tx, resume); err != nil {
			return err
		}

		message := storage.MatchNeededMessage{
			ResumeID:    resumeID,
			TargetJobID: targetJobID,
			EnqueuedAt:  time.Now(),
			RawTextMD5:  textMD5,
		}
		payload, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("序列化匹配事件失败: %w", err)
		}

		outboxMsg := &models.OutboxMessage{
			AggregateID:      resumeID,
			EventType:        storage.EventTypeMatchNeeded,
			Payload:          string(payload),
			TargetExchange:   h.cfg.RabbitMQ.MatchEventsExchange,
			TargetRoutingKey: h.cfg.RabbitMQ.MatchNeededRoutingKey,
			Status:           models.OutboxStatusPending,
		}
		return h.storage.MySQL.CreateOutboxMessage(ctx, tx, outboxMsg)
	})
	if err != nil {
		return nil, fmt.Errorf("保存简历记录失败: %w", err)
	}

	// 落库成功后登记MD5。失败只告警：去重集合失效可容忍，
	// 下一道防线是数据库记录本身
	if err := h.storage.Redis.AddRawTextMD5(ctx, textMD5); err != nil {
		logger.Warn().Err(err).Str("md5", textMD5).Str("resume_id", resumeID).
			Msg("添加文本MD5到Redis去重集合失败")
	}

	logger.Info().
		Str("resume_id", resumeID).
		Str("name", record.Name).
		Int("skills", len(record.Skills)).
		Msg("简历上传处理完成")

	return &ResumeUploadResponse{
		ResumeID: resumeID,
		Status:   constants.StatusPendingMatch,
		Record:   record,
	}, nil
}

// HandleGetResume 查询简历的结构化记录
func (h *ResumeHandler) HandleGetResume(ctx context.Context, resumeID string) (*ResumeDetailResponse, error) {
	resume, err := h.storage.MySQL.GetResumeByID(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	record, err := resumeModelToRecord(resume)
	if err != nil {
		return nil, err
	}

	return &ResumeDetailResponse{
		ResumeID:         resume.ResumeID,
		ProcessingStatus: resume.ProcessingStatus,
		ExtractorVersion: resume.ExtractorVersion,
		Record:           record,
		CreatedAt:        resume.CreatedAt,
	}, nil
}

// resumeModelToRecord 数据库模型到领域记录的转换
func resumeModelToRecord(resume *models.Resume) (*types.ResumeRecord, error) {
	skills, err := models.JSONToStringSlice(resume.SkillsJSON)
	if err != nil {
		return nil, fmt.Errorf("反序列化技能列表失败: %w", err)
	}
	return &types.ResumeRecord{
		Name:       resume.Name,
		Email:      resume.Email,
		Phone:      resume.Phone,
		Skills:     skills,
		Experience: resume.ExperienceText,
		Education:  resume.EducationText,
	}, nil
}
