package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"
	// JobModulePrefix 岗位模块
	JobModulePrefix = "job"
	// MatchModulePrefix 匹配模块
	MatchModulePrefix = "match"

	// EntityText 文本实体
	EntityText = "text"
	// EntityScore 得分实体
	EntityScore = "score"
	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"

	// KeyResumeTextMD5Set 简历文本MD5集合，用于快速去重 (SET)
	// 格式: app:resume:dedup_set
	KeyResumeTextMD5Set = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityDedupSet

	// KeyJobDescriptionText 岗位描述文本缓存 (STRING)
	// 格式: app:job:text:{jobID}
	KeyJobDescriptionText = AppPrefix + ":" + JobModulePrefix + ":" + EntityText + ":%s"

	// KeyMatchScore 匹配得分缓存 (STRING, JSON值)
	// 格式: app:match:score:{resumeID}:{jobID}
	KeyMatchScore = AppPrefix + ":" + MatchModulePrefix + ":" + EntityScore + ":%s:%s"
)
