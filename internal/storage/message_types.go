package storage

import "time"

// 匹配事件类型
const (
	EventTypeMatchNeeded = "resume.match.needed"
)

// MatchNeededMessage 简历入库后触发匹配计算的消息
type MatchNeededMessage struct {
	ResumeID    string    `json:"resume_id"`               // 简历ID，主键
	TargetJobID string    `json:"target_job_id,omitempty"` // 目标岗位ID，为空时对所有ACTIVE岗位计算
	EnqueuedAt  time.Time `json:"enqueued_at"`             // 入队时间戳
	RawTextMD5  string    `json:"raw_text_md5,omitempty"`  // 文本MD5，用于失败时回滚去重集合
}
