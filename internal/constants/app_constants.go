package constants

import "time"

const (
	// DefaultExtractorVersion 当前规则提取器的版本标记，随记录落库
	DefaultExtractorVersion = "rule-extractor-1.0"

	// JDCachePrefix 岗位描述文本缓存前缀
	JDCachePrefix = "jd_text:"
	// JDCacheDuration 岗位描述文本缓存时长
	JDCacheDuration = 24 * time.Hour

	// RawTextMD5SetKey 已接收简历文本MD5集合，用于重复提交快速短路
	RawTextMD5SetKey = "resumes:text_md5s"

	// MatchCacheDuration 匹配得分缓存时长
	MatchCacheDuration = 12 * time.Hour
)

// 简历处理状态
const (
	StatusPendingMatch  = "PENDING_MATCH"
	StatusMatchComputed = "MATCH_COMPUTED"
	StatusExtractFailed = "EXTRACT_FAILED"
)
