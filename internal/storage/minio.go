package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadOriginalDocument 上传原始简历文档，返回对象键
	UploadOriginalDocument(ctx context.Context, resumeID, filename string, reader io.Reader, size int64) (string, error)

	// UploadNormalizedText 上传规范化后的简历文本，返回对象键
	UploadNormalizedText(ctx context.Context, resumeID string, text string) (string, error)

	// GetNormalizedText 读取规范化文本
	GetNormalizedText(ctx context.Context, objectName string) (string, error)

	// GetOriginalDocument 读取原始文档内容
	GetOriginalDocument(ctx context.Context, objectName string) ([]byte, error)

	// DeleteObject 从指定桶删除对象
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client           *minio.Client
	cfg              *config.MinIOConfig
	originalsBucket  string
	normalizedBucket string
}

// NewMinIO 创建MinIO客户端并确保桶存在
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	originalsBucket := cfg.OriginalsBucket
	if originalsBucket == "" {
		originalsBucket = "resume-originals"
	}
	normalizedBucket := cfg.NormalizedBucket
	if normalizedBucket == "" {
		normalizedBucket = "resume-normalized"
	}

	m := &MinIO{
		client:           client,
		cfg:              cfg,
		originalsBucket:  originalsBucket,
		normalizedBucket: normalizedBucket,
	}

	if err := m.ensureBucketExists(originalsBucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保原始文档存储桶 %s 存在失败: %w", originalsBucket, err)
	}
	if err := m.ensureBucketExists(normalizedBucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保规范化文本存储桶 %s 存在失败: %w", normalizedBucket, err)
	}

	// 生命周期规则失败只告警，不阻断启动
	if cfg.OriginalFileExpireDays > 0 || cfg.NormalizedExpireDays > 0 {
		if err := m.setupLifecycleRules(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("设置MinIO生命周期规则失败")
		}
	}

	logger.Info().
		Str("endpoint", cfg.Endpoint).
		Str("originals_bucket", originalsBucket).
		Str("normalized_bucket", normalizedBucket).
		Msg("MinIO客户端初始化成功")
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		err = m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
	}
	return nil
}

// setupLifecycleRules 为两个桶设置过期规则
func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	if m.cfg.OriginalFileExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.originalsBucket, "expire-originals", m.cfg.OriginalFileExpireDays); err != nil {
			return fmt.Errorf("为原始文档存储桶 %s 设置生命周期失败: %w", m.originalsBucket, err)
		}
	}
	if m.cfg.NormalizedExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.normalizedBucket, "expire-normalized", m.cfg.NormalizedExpireDays); err != nil {
			return fmt.Errorf("为规范化文本存储桶 %s 设置生命周期失败: %w", m.normalizedBucket, err)
		}
	}
	return nil
}

// setupBucketLifecycle 为指定存储桶设置生命周期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lcConfig := lifecycle.NewConfiguration()
	lcConfig.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, lcConfig)
}

// UploadOriginalDocument 上传原始简历文档到 originals 桶
func (m *MinIO) UploadOriginalDocument(ctx context.Context, resumeID, filename string, reader io.Reader, size int64) (string, error) {
	ext := ""
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		ext = filename[idx:]
	}
	objectName := fmt.Sprintf("resume/%s/original%s", resumeID, ext)

	_, err := m.client.PutObject(ctx, m.originalsBucket, objectName, reader, size,
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.originalsBucket, objectName, err)
	}
	return objectName, nil
}

// UploadNormalizedText 上传规范化后的简历文本到 normalized 桶
func (m *MinIO) UploadNormalizedText(ctx context.Context, resumeID string, text string) (string, error) {
	objectName := fmt.Sprintf("resume/%s/normalized.txt", resumeID)
	data := []byte(text)

	_, err := m.client.PutObject(ctx, m.normalizedBucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.normalizedBucket, objectName, err)
	}
	return objectName, nil
}

// GetNormalizedText 读取规范化文本
func (m *MinIO) GetNormalizedText(ctx context.Context, objectName string) (string, error) {
	obj, err := m.client.GetObject(ctx, m.normalizedBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("获取对象 %s/%s 失败: %w", m.normalizedBucket, objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("读取对象 %s/%s 内容失败: %w", m.normalizedBucket, objectName, err)
	}
	return string(data), nil
}

// GetOriginalDocument 读取原始文档内容
func (m *MinIO) GetOriginalDocument(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.originalsBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.originalsBucket, objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 内容失败: %w", m.originalsBucket, objectName, err)
	}
	return data, nil
}

// DeleteObject 从指定桶删除对象
func (m *MinIO) DeleteObject(ctx context.Context, bucket, objectName string) error {
	err := m.client.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("删除对象 %s/%s 失败: %w", bucket, objectName, err)
	}
	return nil
}
