package types

import (
	"math"
	"sort"
	"strings"
)

// NameUnknown 姓名提取失败时的哨兵值。
// 下游展示层依赖该字段总是非空，因此提取失败不返回空字符串。
const NameUnknown = "Unknown"

// SectionLabel 表示简历章节类型
type SectionLabel string

const (
	// SectionNone 未归属任何章节
	SectionNone SectionLabel = "NONE"
	// SectionExperience 工作经历章节
	SectionExperience SectionLabel = "EXPERIENCE"
	// SectionEducation 教育经历章节
	SectionEducation SectionLabel = "EDUCATION"
	// SectionSkills 技能章节
	SectionSkills SectionLabel = "SKILLS"
)

// ResumeRecord 从单份简历文档中提取出的结构化记录。
// 每次解析生成一个新实例，生成后不再修改，所有权交给调用方。
type ResumeRecord struct {
	// 姓名，提取失败时为 NameUnknown，永不为空
	Name string `json:"name"`
	// 邮箱，未找到时为空字符串
	Email string `json:"email"`
	// 电话，已去除内部空白，未找到时为空字符串
	Phone string `json:"phone"`
	// 技能集合，小写规范词，只包含技能词表成员，顺序无意义
	Skills []string `json:"skills"`
	// 工作经历自由文本，已按上限截断
	Experience string `json:"experience"`
	// 教育经历自由文本，已按上限截断
	Education string `json:"education"`
}

// SkillSet 返回技能的集合视图，便于做交集运算
func (r *ResumeRecord) SkillSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.Skills))
	for _, s := range r.Skills {
		set[strings.ToLower(s)] = struct{}{}
	}
	return set
}

// ToMap 转换为持久化层使用的键值映射，技能序列化为逗号分隔串
func (r *ResumeRecord) ToMap() map[string]string {
	skills := append([]string(nil), r.Skills...)
	sort.Strings(skills)
	return map[string]string{
		"name":       r.Name,
		"email":      r.Email,
		"phone":      r.Phone,
		"skills":     strings.Join(skills, ","),
		"experience": r.Experience,
		"education":  r.Education,
	}
}

// JobRecord 岗位记录，由岗位摄取管道产出，匹配引擎只消费不生产
type JobRecord struct {
	JobID string `json:"job_id"`
	Title string `json:"title"`
	// 岗位要求技能集合，小写规范词
	Skills []string `json:"skills"`
	// 岗位描述自由文本
	Description string `json:"description"`
	// 经验年限要求自由文本，可能为空
	RequiredExperience string `json:"required_experience"`
}

// SkillSet 返回岗位技能的集合视图
func (j *JobRecord) SkillSet() map[string]struct{} {
	set := make(map[string]struct{}, len(j.Skills))
	for _, s := range j.Skills {
		set[strings.ToLower(s)] = struct{}{}
	}
	return set
}

// MatchScore 一次简历与岗位比对的得分明细。
// 纯值对象，构造后不可变，无身份标识。
// 各分量以百分比表示（0-100，保留2位小数），TotalScore 由固定权重加权得出。
type MatchScore struct {
	TotalScore      float64 `json:"total_score"`
	KeywordScore    float64 `json:"keyword_score"`
	SemanticScore   float64 `json:"semantic_score"`
	ExperienceScore float64 `json:"experience_score"`
}

// ScoreWeights 三个分量的聚合权重
type ScoreWeights struct {
	Keyword    float64 `yaml:"keyword" json:"keyword"`
	Semantic   float64 `yaml:"semantic" json:"semantic"`
	Experience float64 `yaml:"experience" json:"experience"`
}

// DefaultScoreWeights 默认权重 0.4/0.4/0.2，沿用既定策略常量
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Keyword: 0.4, Semantic: 0.4, Experience: 0.2}
}

// NewMatchScore 由 [0,1] 区间的原始分量和权重构造得分明细。
// total = round(100 × (wk·k + ws·s + we·e), 2)，分量各自 ×100 后保留2位。
func NewMatchScore(keyword, semantic, experience float64, w ScoreWeights) *MatchScore {
	total := (keyword*w.Keyword + semantic*w.Semantic + experience*w.Experience) * 100
	return &MatchScore{
		TotalScore:      Round2(total),
		KeywordScore:    Round2(keyword * 100),
		SemanticScore:   Round2(semantic * 100),
		ExperienceScore: Round2(experience * 100),
	}
}

// ToMap 转换为持久化层使用的键值映射，按 (简历ID, 岗位ID) 落库
func (m *MatchScore) ToMap() map[string]float64 {
	return map[string]float64{
		"total_score":      m.TotalScore,
		"keyword_score":    m.KeywordScore,
		"semantic_score":   m.SemanticScore,
		"experience_score": m.ExperienceScore,
	}
}

// Round2 四舍五入保留2位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SplitSkills 解析分隔串形式的技能列表（逗号/分号/竖线分隔），小写去重
func SplitSkills(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	seen := make(map[string]struct{}, len(fields))
	var skills []string
	for _, f := range fields {
		s := strings.ToLower(strings.TrimSpace(f))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		skills = append(skills, s)
	}
	return skills
}
