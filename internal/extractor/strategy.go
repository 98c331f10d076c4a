package extractor

import (
	"sort"
	"strings"

	"resume-match-go/internal/types"
)

// Params 提取器的全部规则配置，各策略共享
type Params struct {
	// Vocabulary 技能词表：规范小写技能串到自身的映射，
	// 同时充当成员测试和关键词全集
	Vocabulary map[string]string
	// MultiWordSkills 词表中含空格的条目（如 "machine learning"），
	// 单词元扫描无法命中，必须走短语扫描
	MultiWordSkills []string
	// 章节触发关键词
	ExperienceKeywords []string
	EducationKeywords  []string
	SkillKeywords      []string
	// 章节文本长度上限
	ExperienceMaxLen int
	EducationMaxLen  int
	// 姓名扫描的头部行数
	NameScanLines int
}

// NewParams 由词表和关键词集构造规则配置
func NewParams(vocabulary, expKeywords, eduKeywords, skillKeywords []string, expMax, eduMax, nameLines int) *Params {
	p := &Params{
		Vocabulary:         make(map[string]string, len(vocabulary)),
		ExperienceKeywords: lowerAll(expKeywords),
		EducationKeywords:  lowerAll(eduKeywords),
		SkillKeywords:      lowerAll(skillKeywords),
		ExperienceMaxLen:   expMax,
		EducationMaxLen:    eduMax,
		NameScanLines:      nameLines,
	}
	for _, skill := range vocabulary {
		canonical := strings.ToLower(strings.TrimSpace(skill))
		if canonical == "" {
			continue
		}
		p.Vocabulary[canonical] = canonical
		if strings.Contains(canonical, " ") {
			p.MultiWordSkills = append(p.MultiWordSkills, canonical)
		}
	}
	return p
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

// sectionRules 章节匹配顺序固定：经历、教育、技能
func (p *Params) sectionRules() []sectionRule {
	return []sectionRule{
		{label: types.SectionExperience, keywords: p.ExperienceKeywords},
		{label: types.SectionEducation, keywords: p.EducationKeywords},
		{label: types.SectionSkills, keywords: p.SkillKeywords},
	}
}

// ExtractionStrategy 可插拔的提取策略。
// 三种变体对应历史上并存的三条提取路线，不是重复实现：
// 纯规则、实体辅助、章节感知。测试可以分别针对每种策略。
type ExtractionStrategy interface {
	// Name 策略名，用于日志与落库标记
	Name() string
	// Extract 从原始文本和标注中提取结构化记录。
	// 纯函数：不依赖任何跨调用状态，失败字段取文档化的默认值。
	Extract(rawText string, ann *types.Annotation) *types.ResumeRecord
}

// ---- 共享提取原语 ----

// nameFromHeadLines 在文档头部若干行内找姓名行。
// strict 控制使用严格（2-3词Title Case）还是宽松（2词首字母大写）模式。
func nameFromHeadLines(rawText string, scanLines int, strict bool) string {
	for _, line := range headLines(rawText, scanLines) {
		if strict && isStrictNameLine(line) {
			return line
		}
		if !strict && isLooseNameLine(line) {
			return line
		}
	}
	return ""
}

// resolveName 按既定优先级提取姓名：
// 1) 头部严格姓名行 —— 简历抬头几乎总是把姓名放在靠前的独立行上，
//    模式匹配比NER更便宜也更可靠，所以排最前；
// 2) 标注中的第一个PERSON实体（useEntities时）；
// 3) 头部宽松姓名行；
// 4) 哨兵值 Unknown。该字段永不为空。
func resolveName(rawText string, ann *types.Annotation, scanLines int, useEntities bool) string {
	if name := nameFromHeadLines(rawText, scanLines, true); name != "" {
		return name
	}
	if useEntities {
		if name := ann.FirstEntity(types.EntityPerson); name != "" {
			return name
		}
	}
	if name := nameFromHeadLines(rawText, scanLines, false); name != "" {
		return name
	}
	return types.NameUnknown
}

// skillsFromTokens 词元扫描：小写词元与词表求交
func skillsFromTokens(ann *types.Annotation, p *Params, into map[string]struct{}) {
	for _, tok := range ann.Tokens {
		lower := strings.ToLower(tok.Text)
		if canonical, ok := p.Vocabulary[lower]; ok {
			into[canonical] = struct{}{}
		}
	}
}

// skillsFromPhrases 短语扫描：在规范化小写文本上查找词表条目。
// phrases 为空时扫描全部词表（纯规则策略），否则只扫多词条目。
func skillsFromPhrases(normalizedLower string, phrases []string, into map[string]struct{}) {
	for _, phrase := range phrases {
		if containsPhrase(normalizedLower, phrase) {
			into[phrase] = struct{}{}
		}
	}
}

// sortedSkills 集合转有序切片。集合本身顺序无意义，
// 排序只是为了输出可复现。
func sortedSkills(set map[string]struct{}) []string {
	skills := make([]string, 0, len(set))
	for s := range set {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return skills
}

// allVocabulary 词表全部条目，供纯规则策略做全量短语扫描
func (p *Params) allVocabulary() []string {
	all := make([]string, 0, len(p.Vocabulary))
	for canonical := range p.Vocabulary {
		all = append(all, canonical)
	}
	sort.Strings(all)
	return all
}

// ---- RegexOnly：只用原始文本和词表，不依赖实体标注 ----

// RegexOnly 纯规则策略。姓名只看头部行，技能只做短语扫描，
// 经历/教育只做整篇关键词粗扫。适合标注服务不可用时的降级路径。
type RegexOnly struct {
	params *Params
}

// NewRegexOnly 创建纯规则策略
func NewRegexOnly(params *Params) *RegexOnly {
	return &RegexOnly{params: params}
}

func (s *RegexOnly) Name() string { return "regex_only" }

func (s *RegexOnly) Extract(rawText string, ann *types.Annotation) *types.ResumeRecord {
	p := s.params
	normalized := NormalizeText(rawText)
	lower := strings.ToLower(normalized)

	skillSet := make(map[string]struct{})
	skillsFromPhrases(lower, p.allVocabulary(), skillSet)

	return &types.ResumeRecord{
		Name:       resolveName(rawText, ann, p.NameScanLines, false),
		Email:      findEmail(rawText),
		Phone:      findPhone(rawText),
		Skills:     sortedSkills(skillSet),
		Experience: sectionText(ann, nil, p.ExperienceKeywords, p.ExperienceMaxLen),
		Education:  sectionText(ann, nil, p.EducationKeywords, p.EducationMaxLen),
	}
}

// ---- EntityAssisted：规则 + 命名实体，不做章节切分 ----

// EntityAssisted 实体辅助策略。在纯规则之上引入PERSON实体兜底
// 和词元级技能扫描，经历/教育仍用整篇关键词粗扫。
type EntityAssisted struct {
	params *Params
}

// NewEntityAssisted 创建实体辅助策略
func NewEntityAssisted(params *Params) *EntityAssisted {
	return &EntityAssisted{params: params}
}

func (s *EntityAssisted) Name() string { return "entity_assisted" }

func (s *EntityAssisted) Extract(rawText string, ann *types.Annotation) *types.ResumeRecord {
	p := s.params
	normalized := NormalizeText(rawText)
	lower := strings.ToLower(normalized)

	skillSet := make(map[string]struct{})
	skillsFromTokens(ann, p, skillSet)
	skillsFromPhrases(lower, p.MultiWordSkills, skillSet)

	return &types.ResumeRecord{
		Name:       resolveName(rawText, ann, p.NameScanLines, true),
		Email:      findEmail(rawText),
		Phone:      findPhone(rawText),
		Skills:     sortedSkills(skillSet),
		Experience: sectionText(ann, nil, p.ExperienceKeywords, p.ExperienceMaxLen),
		Education:  sectionText(ann, nil, p.EducationKeywords, p.EducationMaxLen),
	}
}

// ---- SectionAware：完整流水线，含章节切分（默认策略） ----

// SectionAware 章节感知策略：实体辅助的全部能力，
// 外加按句子顺序的章节切分状态机。
type SectionAware struct {
	params *Params
}

// NewSectionAware 创建章节感知策略
func NewSectionAware(params *Params) *SectionAware {
	return &SectionAware{params: params}
}

func (s *SectionAware) Name() string { return "section_aware" }

func (s *SectionAware) Extract(rawText string, ann *types.Annotation) *types.ResumeRecord {
	p := s.params
	normalized := NormalizeText(rawText)
	lower := strings.ToLower(normalized)

	skillSet := make(map[string]struct{})
	skillsFromTokens(ann, p, skillSet)
	skillsFromPhrases(lower, p.MultiWordSkills, skillSet)

	sections := segmentSentences(ann, p.sectionRules())

	return &types.ResumeRecord{
		Name:       resolveName(rawText, ann, p.NameScanLines, true),
		Email:      findEmail(rawText),
		Phone:      findPhone(rawText),
		Skills:     sortedSkills(skillSet),
		Experience: sectionText(ann, sections[types.SectionExperience], p.ExperienceKeywords, p.ExperienceMaxLen),
		Education:  sectionText(ann, sections[types.SectionEducation], p.EducationKeywords, p.EducationMaxLen),
	}
}
