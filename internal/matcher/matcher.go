package matcher // 匹配引擎：结构化简历 × 岗位记录 → 综合匹配得分

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"resume-match-go/internal/annotator"
	"resume-match-go/internal/types"
)

// Engine 匹配引擎。无跨调用状态，对相同输入产出逐位相同的得分，
// 可安全并发使用。标注器通过构造函数注入。
type Engine struct {
	annotator annotator.Annotator
	weights   types.ScoreWeights
}

// EngineOption 定义配置选项函数
type EngineOption func(*Engine)

// WithWeights 覆盖聚合权重（服务级配置，不支持单次调用覆盖）
func WithWeights(w types.ScoreWeights) EngineOption {
	return func(e *Engine) {
		e.weights = w
	}
}

// NewEngine 创建匹配引擎，默认权重 0.4/0.4/0.2
func NewEngine(ann annotator.Annotator, options ...EngineOption) *Engine {
	e := &Engine{
		annotator: ann,
		weights:   types.DefaultScoreWeights(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Weights 返回当前聚合权重
func (e *Engine) Weights() types.ScoreWeights {
	return e.weights
}

// RankedJob 排序结果中的一项：岗位与其得分
type RankedJob struct {
	Job   *types.JobRecord  `json:"job"`
	Score *types.MatchScore `json:"score"`
}

// Score 计算一对简历与岗位的综合得分
func (e *Engine) Score(ctx context.Context, resume *types.ResumeRecord, job *types.JobRecord) (*types.MatchScore, error) {
	profile, err := e.prepareResume(ctx, resume)
	if err != nil {
		return nil, err
	}
	return e.scorePrepared(ctx, profile, job)
}

// Rank 对一批岗位逐一评分并按总分降序返回。
// 使用稳定排序：四舍五入后的总分并列时保持输入顺序。
// N个岗位是N次相互独立的评分，简历侧的预处理只做一次。
func (e *Engine) Rank(ctx context.Context, resume *types.ResumeRecord, jobs []*types.JobRecord) ([]RankedJob, error) {
	profile, err := e.prepareResume(ctx, resume)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedJob, 0, len(jobs))
	for _, job := range jobs {
		score, err := e.scorePrepared(ctx, profile, job)
		if err != nil {
			return nil, fmt.Errorf("评分岗位 %s 失败: %w", job.JobID, err)
		}
		ranked = append(ranked, RankedJob{Job: job, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.TotalScore > ranked[j].Score.TotalScore
	})

	return ranked, nil
}

// resumeProfile 简历侧的预计算结果，排序批量评分时复用
type resumeProfile struct {
	skills         map[string]struct{}
	semanticTerms  []string
	availableYears int
}

// prepareResume 预处理简历侧：技能集合、语义词串、可用年数
func (e *Engine) prepareResume(ctx context.Context, resume *types.ResumeRecord) (*resumeProfile, error) {
	semanticText := strings.TrimSpace(resume.Experience + " " + resume.Education)
	terms, err := e.preprocess(ctx, semanticText)
	if err != nil {
		return nil, fmt.Errorf("预处理简历文本失败: %w", err)
	}

	availableYears, err := e.extractYears(ctx, resume.Experience)
	if err != nil {
		return nil, fmt.Errorf("提取简历经验年数失败: %w", err)
	}

	return &resumeProfile{
		skills:         resume.SkillSet(),
		semanticTerms:  terms,
		availableYears: availableYears,
	}, nil
}

// scorePrepared 用预处理好的简历侧数据对单个岗位评分
func (e *Engine) scorePrepared(ctx context.Context, profile *resumeProfile, job *types.JobRecord) (*types.MatchScore, error) {
	keyword := keywordScore(profile.skills, job.SkillSet())

	jobTerms, err := e.preprocess(ctx, job.Description)
	if err != nil {
		return nil, fmt.Errorf("预处理岗位描述失败: %w", err)
	}
	semantic := tfidfCosine(profile.semanticTerms, jobTerms)

	requiredYears, err := e.extractYears(ctx, job.RequiredExperience)
	if err != nil {
		return nil, fmt.Errorf("提取岗位要求年数失败: %w", err)
	}
	experience := experienceScore(profile.availableYears, requiredYears)

	return types.NewMatchScore(keyword, semantic, experience, e.weights), nil
}

// keywordScore 关键词分量：|简历技能 ∩ 岗位技能| / |岗位技能|。
// 岗位技能为空时定义为0：空需求集意味着该维度不贡献分数，不是错误。
func keywordScore(resumeSkills, jobSkills map[string]struct{}) float64 {
	if len(jobSkills) == 0 {
		return 0
	}
	matched := 0
	for skill := range jobSkills {
		if _, ok := resumeSkills[skill]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(jobSkills))
}

// preprocess 语义比对前的文本预处理：小写、标注、
// 丢弃停用词与标点、取词元形式
func (e *Engine) preprocess(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	ann, err := e.annotator.Annotate(ctx, strings.ToLower(text))
	if err != nil {
		return nil, fmt.Errorf("语言标注失败: %w", err)
	}

	terms := make([]string, 0, len(ann.Tokens))
	for _, tok := range ann.Tokens {
		if tok.IsStop || tok.IsPunct {
			continue
		}
		lemma := strings.ToLower(tok.Lemma)
		if lemma == "" {
			lemma = strings.ToLower(tok.Text)
		}
		if strings.TrimSpace(lemma) == "" {
			continue
		}
		terms = append(terms, lemma)
	}
	return terms, nil
}

// extractYears 对一段自由文本提取经验年数（标注实体优先，正则兜底）
func (e *Engine) extractYears(ctx context.Context, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	ann, err := e.annotator.Annotate(ctx, strings.ToLower(text))
	if err != nil {
		return 0, fmt.Errorf("语言标注失败: %w", err)
	}

	return yearsFromText(text, ann), nil
}
