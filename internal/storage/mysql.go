package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"resume-match-go/internal/config"
	"resume-match-go/internal/storage/models"
)

var mysqlTracer = otel.Tracer("resume-match-go/storage/mysql")

// ErrResumeNotFound 简历记录不存在
var ErrResumeNotFound = errors.New("简历记录不存在")

// ErrJobNotFound 岗位记录不存在
var ErrJobNotFound = errors.New("岗位记录不存在")

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	// 构建DSN，添加超时设置
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	// 配置GORM日志级别
	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // 外键由应用层维护
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	// 连接池参数
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{
		db:  db,
		cfg: cfg,
	}

	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构，迁移期间关闭SQL日志
func (m *MySQL) autoMigrateSchema() error {
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	err := silentDB.AutoMigrate(
		&models.Resume{},
		&models.Job{},
		&models.MatchResult{},
		&models.OutboxMessage{},
	)
	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// CreateResume 创建简历记录 (可在事务中执行，tx为nil时使用默认连接)
func (m *MySQL) CreateResume(ctx context.Context, tx *gorm.DB, resume *models.Resume) error {
	db := m.db
	if tx != nil {
		db = tx
	}
	if err := db.WithContext(ctx).Create(resume).Error; err != nil {
		return fmt.Errorf("创建简历记录失败: %w", err)
	}
	return nil
}

// GetResumeByID 通过 ResumeID 获取简历记录
func (m *MySQL) GetResumeByID(ctx context.Context, resumeID string) (*models.Resume, error) {
	var resume models.Resume
	err := m.db.WithContext(ctx).Where("resume_id = ?", resumeID).First(&resume).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, fmt.Errorf("查询简历失败: %w", err)
	}
	return &resume, nil
}

// UpdateResumeProcessingStatus 更新简历处理状态
func (m *MySQL) UpdateResumeProcessingStatus(ctx context.Context, resumeID string, status string) error {
	return m.db.WithContext(ctx).Model(&models.Resume{}).
		Where("resume_id = ?", resumeID).
		Update("processing_status", status).Error
}

// UpsertJob 创建或更新岗位记录，以 job_id 为冲突键
func (m *MySQL) UpsertJob(ctx context.Context, job *models.Job) error {
	err := m.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "job_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"job_title", "company", "location", "job_description_text",
				"skills_json", "required_experience", "salary_range",
				"source_url", "status",
			}),
		}).Create(job).Error
	if err != nil {
		return fmt.Errorf("写入岗位记录失败: %w", err)
	}
	return nil
}

// GetJobByID 通过 JobID 获取岗位记录
func (m *MySQL) GetJobByID(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	err := m.db.WithContext(ctx).Where("job_id = ?", jobID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("查询岗位失败: %w", err)
	}
	return &job, nil
}

// ListActiveJobs 列出所有 ACTIVE 状态的岗位，按创建时间升序保证排序输入稳定
func (m *MySQL) ListActiveJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := m.db.WithContext(ctx).
		Where("status = ?", "ACTIVE").
		Order("created_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("查询ACTIVE岗位失败: %w", err)
	}
	return jobs, nil
}

// BatchUpsertMatchResults 批量写入匹配结果，(resume_id, job_id) 冲突时更新得分
func (m *MySQL) BatchUpsertMatchResults(ctx context.Context, results []models.MatchResult) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.BatchUpsertMatchResults",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		semconv.DBSystemMySQL,
		attribute.String("db.name", m.cfg.Database),
		attribute.String("db.operation", "INSERT_ON_DUPLICATE"),
		attribute.String("db.sql.table", "match_results"),
		attribute.Int("batch.size", len(results)),
	)

	if len(results) == 0 {
		span.SetStatus(codes.Ok, "no results to upsert")
		return nil
	}

	err := m.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "resume_id"}, {Name: "job_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_score", "keyword_score", "semantic_score",
				"experience_score", "evaluated_at",
			}),
		}).Create(&results).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("批量写入匹配结果失败: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows_affected", len(results)))
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetMatchResult 查询一对简历与岗位的已落库匹配结果
func (m *MySQL) GetMatchResult(ctx context.Context, resumeID, jobID string) (*models.MatchResult, error) {
	var result models.MatchResult
	err := m.db.WithContext(ctx).
		Where("resume_id = ? AND job_id = ?", resumeID, jobID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("查询匹配结果失败: %w", err)
	}
	return &result, nil
}

// CreateOutboxMessage 在给定事务中写入发件箱消息，与业务写入保持原子
func (m *MySQL) CreateOutboxMessage(ctx context.Context, tx *gorm.DB, msg *models.OutboxMessage) error {
	db := m.db
	if tx != nil {
		db = tx
	}
	if err := db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("写入发件箱消息失败: %w", err)
	}
	return nil
}
