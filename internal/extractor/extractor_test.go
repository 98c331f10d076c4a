package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/config"
	"resume-match-go/internal/types"
)

// stubAnnotator 测试用假标注器，返回预置标注或预置错误
type stubAnnotator struct {
	annotation *types.Annotation
	err        error
}

func (s *stubAnnotator) Annotate(_ context.Context, _ string) (*types.Annotation, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.annotation == nil {
		return &types.Annotation{}, nil
	}
	return s.annotation, nil
}

// testExtractorConfig 测试用的提取规则配置
func testExtractorConfig() config.ExtractorConfig {
	return config.ExtractorConfig{
		SkillVocabulary: []string{
			"python", "java", "c++", "javascript", "react", "node.js",
			"sql", "machine learning", "data analysis",
		},
		ExperienceKeywords: []string{"experience", "work history", "employment"},
		EducationKeywords:  []string{"education", "university", "college", "degree"},
		SkillKeywords:      []string{"skills", "technologies", "proficiencies"},
		ExperienceMaxLen:   1000,
		EducationMaxLen:    500,
		NameScanLines:      5,
	}
}

// annotationFromWords 由单词列表构造最小标注（无停用词、无实体、单句）
func annotationFromWords(words ...string) *types.Annotation {
	tokens := make([]types.Token, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, types.Token{Text: w, Lemma: strings.ToLower(w)})
	}
	return &types.Annotation{
		Tokens: tokens,
		Sentences: []types.Sentence{
			{Start: 0, End: len(tokens), Text: strings.Join(words, " ")},
		},
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a\n\n b\tc  "))
	assert.Equal(t, "", NormalizeText("   \n\t  "))
	assert.Equal(t, "single", NormalizeText("single"))
}

func TestFindEmail(t *testing.T) {
	assert.Equal(t, "jane.doe+hr@example.co.uk",
		findEmail("联系方式 Contact: jane.doe+hr@example.co.uk or by phone"))
	// 多个邮箱取第一个
	assert.Equal(t, "first@example.com",
		findEmail("first@example.com second@example.com"))
	assert.Equal(t, "", findEmail("没有邮箱的文本 no email here"))
}

func TestFindPhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"括号区号", "Call (555) 123-4567 today", "(555)123-4567"},
		{"加一前缀", "+1 555-123-4567", "+1555-123-4567"},
		{"点分隔", "tel: 555.123.4567", "555.123.4567"},
		{"带分机号", "office 555-123-4567 ext 89", "555-123-4567ext89"},
		{"未找到", "no phone number 12345", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, findPhone(tc.in))
		})
	}
}

func TestNameLineMatching(t *testing.T) {
	// 严格模式：2-3个首字母大写词，允许中间名缩写
	assert.True(t, isStrictNameLine("Jane Public"))
	assert.True(t, isStrictNameLine("Jane Q. Public"))
	assert.False(t, isStrictNameLine("JANE PUBLIC"), "全大写词不满足严格模式")
	assert.False(t, isStrictNameLine("Jane"), "单词不是姓名行")
	assert.False(t, isStrictNameLine("Senior Software Engineer Resume"), "超过3个词")
	assert.False(t, isStrictNameLine("jane public"), "小写开头")

	// 宽松模式：恰好2个词且首字母大写即可
	assert.True(t, isLooseNameLine("JANE PUBLIC"))
	assert.True(t, isLooseNameLine("Ronald McDonald"))
	assert.False(t, isLooseNameLine("Jane Q. Public"), "宽松模式要求恰好2个词")
	assert.False(t, isLooseNameLine("jane public"))
}

func TestContainsPhrase(t *testing.T) {
	// 词边界检查：java 不应命中 javascript
	assert.False(t, containsPhrase("expert in javascript only", "java"))
	assert.True(t, containsPhrase("expert in java and go", "java"))
	assert.True(t, containsPhrase("java", "java"), "整串命中")
	assert.True(t, containsPhrase("knows machine learning well", "machine learning"))
	assert.False(t, containsPhrase("text", ""))
	// 首次命中无边界时继续向后扫描
	assert.True(t, containsPhrase("javascript and java", "java"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abcdef", 3))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	// 按字符截断而不是字节
	assert.Equal(t, "数据分", truncateRunes("数据分析经验", 3))
	// 上限为0表示不截断
	assert.Equal(t, "abcdef", truncateRunes("abcdef", 0))
}

// TestNamePrecedence 姓名提取优先级：严格行 > PERSON实体 > 宽松行 > Unknown
func TestNamePrecedence(t *testing.T) {
	ex := New(testExtractorConfig(), &stubAnnotator{})

	t.Run("头部严格姓名行优先", func(t *testing.T) {
		raw := "Jane Q. Public\njane@example.com\n(555) 123-4567"
		ann := &types.Annotation{
			Entities: []types.Entity{{Label: types.EntityPerson, Text: "Someone Else"}},
		}
		rec, err := ex.ExtractFromAnnotation(raw, ann)
		require.NoError(t, err)
		assert.Equal(t, "Jane Q. Public", rec.Name, "严格行存在时不应采用实体")
	})

	t.Run("无严格行时回退到PERSON实体", func(t *testing.T) {
		raw := "RESUME\nSoftware engineer with ten years experience.\njohn@example.com"
		ann := &types.Annotation{
			Entities: []types.Entity{{Label: types.EntityPerson, Text: "John Smith"}},
		}
		rec, err := ex.ExtractFromAnnotation(raw, ann)
		require.NoError(t, err)
		assert.Equal(t, "John Smith", rec.Name)
	})

	t.Run("无实体时回退到宽松姓名行", func(t *testing.T) {
		raw := "JANE PUBLIC\njane@example.com"
		rec, err := ex.ExtractFromAnnotation(raw, &types.Annotation{})
		require.NoError(t, err)
		assert.Equal(t, "JANE PUBLIC", rec.Name)
	})

	t.Run("全部落空时为Unknown", func(t *testing.T) {
		raw := "resume of a developer\nall lowercase text here"
		rec, err := ex.ExtractFromAnnotation(raw, &types.Annotation{})
		require.NoError(t, err)
		assert.Equal(t, types.NameUnknown, rec.Name)
		assert.NotEmpty(t, rec.Name, "姓名字段永不为空")
	})
}

// TestSkillExtraction 技能提取：词元交集 + 多词短语扫描，结果是词表子集
func TestSkillExtraction(t *testing.T) {
	cfg := testExtractorConfig()
	ex := New(cfg, &stubAnnotator{})

	raw := "Jane Public\nExperienced in Python and machine learning, not javascript."
	ann := annotationFromWords(
		"Jane", "Public", "Experienced", "in", "Python", "and",
		"machine", "learning", "not", "javascript",
	)
	rec, err := ex.ExtractFromAnnotation(raw, ann)
	require.NoError(t, err)

	assert.Contains(t, rec.Skills, "python", "词元扫描应命中python")
	assert.Contains(t, rec.Skills, "machine learning", "多词条目必须由短语扫描命中")
	assert.Contains(t, rec.Skills, "javascript")

	// 提取结果必须是词表子集
	vocab := make(map[string]struct{}, len(cfg.SkillVocabulary))
	for _, s := range cfg.SkillVocabulary {
		vocab[s] = struct{}{}
	}
	for _, s := range rec.Skills {
		_, ok := vocab[s]
		assert.True(t, ok, "技能 %q 不在词表中", s)
	}
}

// TestSkillPhraseBoundary java 不应命中 javascript 内部
func TestSkillPhraseBoundary(t *testing.T) {
	cfg := testExtractorConfig()
	cfg.SkillVocabulary = []string{"java"}
	ex := New(cfg, &stubAnnotator{}, WithStrategy(NewRegexOnly(NewParams(
		cfg.SkillVocabulary, cfg.ExperienceKeywords, cfg.EducationKeywords,
		cfg.SkillKeywords, cfg.ExperienceMaxLen, cfg.EducationMaxLen, cfg.NameScanLines,
	))))

	rec, err := ex.ExtractFromAnnotation("Expert in javascript frameworks", &types.Annotation{})
	require.NoError(t, err)
	assert.Empty(t, rec.Skills)

	rec, err = ex.ExtractFromAnnotation("Expert in java services", &types.Annotation{})
	require.NoError(t, err)
	assert.Equal(t, []string{"java"}, rec.Skills)
}

// TestSectionSegmentation 章节切分状态机：触发句归入新章节，
// 首个触发句之前的句子不归属任何章节
func TestSectionSegmentation(t *testing.T) {
	ex := New(testExtractorConfig(), &stubAnnotator{})

	sentences := []string{
		"Jane Q. Public is a developer.",
		"Work experience at Acme Corp.",
		"Built many backend systems.",
		"Education at State University.",
		"Bachelor of Science in CS.",
	}
	ann := &types.Annotation{}
	for _, s := range sentences {
		ann.Sentences = append(ann.Sentences, types.Sentence{Text: s})
	}

	rec, err := ex.ExtractFromAnnotation(strings.Join(sentences, "\n"), ann)
	require.NoError(t, err)

	assert.Equal(t, "Work experience at Acme Corp. Built many backend systems.", rec.Experience)
	assert.Equal(t, "Education at State University. Bachelor of Science in CS.", rec.Education)
	assert.NotContains(t, rec.Experience, "Jane Q. Public", "触发句之前的句子不归属章节")
}

// TestSectionMisMerge 已知启发式行为：非章节句子里顺带出现的关键词
// 也会切换状态。该行为按现状固定。
func TestSectionMisMerge(t *testing.T) {
	ex := New(testExtractorConfig(), &stubAnnotator{})

	ann := &types.Annotation{
		Sentences: []types.Sentence{
			{Text: "Skills include Python and SQL."},
			{Text: "Preferred candidates hold a bachelor's degree."},
			{Text: "Also familiar with React."},
		},
	}
	rec, err := ex.ExtractFromAnnotation("any raw text", ann)
	require.NoError(t, err)

	assert.Contains(t, rec.Education, "bachelor's degree")
	assert.Contains(t, rec.Education, "Also familiar with React.",
		"关键词切换后的句子跟随新章节")
}

// TestCoarseKeywordFallback 无章节切分时的整篇关键词兜底扫描
func TestCoarseKeywordFallback(t *testing.T) {
	cfg := testExtractorConfig()
	params := NewParams(
		cfg.SkillVocabulary, cfg.ExperienceKeywords, cfg.EducationKeywords,
		cfg.SkillKeywords, cfg.ExperienceMaxLen, cfg.EducationMaxLen, cfg.NameScanLines,
	)
	ex := New(cfg, &stubAnnotator{}, WithStrategy(NewEntityAssisted(params)))

	ann := &types.Annotation{
		Sentences: []types.Sentence{
			{Text: "Graduated from State University."},
			{Text: "Unrelated filler sentence."},
			{Text: "Five years of employment at Acme."},
		},
	}
	rec, err := ex.ExtractFromAnnotation("any raw text", ann)
	require.NoError(t, err)

	assert.Equal(t, "Five years of employment at Acme.", rec.Experience)
	assert.Equal(t, "Graduated from State University.", rec.Education)
}

// TestSectionTruncation 章节文本按配置的字符上限截断
func TestSectionTruncation(t *testing.T) {
	cfg := testExtractorConfig()
	cfg.ExperienceMaxLen = 20
	cfg.EducationMaxLen = 10
	ex := New(cfg, &stubAnnotator{})

	ann := &types.Annotation{
		Sentences: []types.Sentence{
			{Text: "Work experience spanning many different companies and roles."},
			{Text: "Education from a very long university name somewhere."},
		},
	}
	rec, err := ex.ExtractFromAnnotation("any raw text", ann)
	require.NoError(t, err)

	assert.Len(t, []rune(rec.Experience), 20)
	assert.Len(t, []rune(rec.Education), 10)
}

// TestExtractEmptyDocument 空文本是唯一的硬失败
func TestExtractEmptyDocument(t *testing.T) {
	ex := New(testExtractorConfig(), &stubAnnotator{})
	ctx := context.Background()

	for _, raw := range []string{"", "   ", "\n\t  \n"} {
		_, err := ex.Extract(ctx, raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyDocument), "应能用errors.Is识别空文档错误")
	}

	_, err := ex.ExtractFromAnnotation("  ", &types.Annotation{})
	assert.True(t, errors.Is(err, ErrEmptyDocument))
}

// TestExtractAnnotatorFailureDegrades 标注服务出错时降级为空标注，
// 规则部分（姓名行、邮箱、电话、短语技能）仍然有效
func TestExtractAnnotatorFailureDegrades(t *testing.T) {
	ex := New(testExtractorConfig(), &stubAnnotator{err: errors.New("标注服务不可用")})

	raw := "Jane Q. Public\njane@example.com\n(555) 123-4567\nStrong in machine learning."
	rec, err := ex.Extract(context.Background(), raw)
	require.NoError(t, err, "标注失败不是硬错误")

	assert.Equal(t, "Jane Q. Public", rec.Name)
	assert.Equal(t, "jane@example.com", rec.Email)
	assert.Equal(t, "(555)123-4567", rec.Phone)
	assert.Contains(t, rec.Skills, "machine learning", "短语扫描不依赖标注")
	assert.Empty(t, rec.Experience, "句子切分依赖标注，降级后为空")
}

// TestStrategyNames 三种策略的名字与默认策略
func TestStrategyNames(t *testing.T) {
	cfg := testExtractorConfig()
	params := NewParams(
		cfg.SkillVocabulary, cfg.ExperienceKeywords, cfg.EducationKeywords,
		cfg.SkillKeywords, cfg.ExperienceMaxLen, cfg.EducationMaxLen, cfg.NameScanLines,
	)

	assert.Equal(t, "regex_only", NewRegexOnly(params).Name())
	assert.Equal(t, "entity_assisted", NewEntityAssisted(params).Name())
	assert.Equal(t, "section_aware", NewSectionAware(params).Name())

	ex := New(cfg, &stubAnnotator{})
	assert.Equal(t, "section_aware", ex.StrategyName(), "默认为章节感知策略")
}

// TestRegexOnlyIgnoresEntities 纯规则策略不使用实体，姓名走宽松行匹配
func TestRegexOnlyIgnoresEntities(t *testing.T) {
	cfg := testExtractorConfig()
	params := NewParams(
		cfg.SkillVocabulary, cfg.ExperienceKeywords, cfg.EducationKeywords,
		cfg.SkillKeywords, cfg.ExperienceMaxLen, cfg.EducationMaxLen, cfg.NameScanLines,
	)
	ex := New(cfg, &stubAnnotator{}, WithStrategy(NewRegexOnly(params)))

	raw := "resume document\nall lowercase header lines"
	ann := &types.Annotation{
		Entities: []types.Entity{{Label: types.EntityPerson, Text: "John Smith"}},
	}
	rec, err := ex.ExtractFromAnnotation(raw, ann)
	require.NoError(t, err)
	assert.Equal(t, types.NameUnknown, rec.Name, "纯规则策略不应采用PERSON实体")

	// 纯规则策略做全量短语扫描，单词技能也能从文本命中
	rec, err = ex.ExtractFromAnnotation("knows python and sql", &types.Annotation{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"python", "sql"}, rec.Skills)
}

// TestExtractFullPipeline 端到端：一份典型简历文本过默认策略
func TestExtractFullPipeline(t *testing.T) {
	ex := New(testExtractorConfig(), &stubAnnotator{
		annotation: &types.Annotation{
			Tokens: []types.Token{
				{Text: "Python", Lemma: "python"},
				{Text: "SQL", Lemma: "sql"},
			},
			Sentences: []types.Sentence{
				{Text: "Jane Q. Public."},
				{Text: "Work experience: 5 years at Acme Corp as backend engineer."},
				{Text: "Education: B.S. from State University."},
			},
		},
	})

	raw := "Jane Q. Public\njane@example.com | (555) 123-4567\n" +
		"Work experience: 5 years at Acme Corp as backend engineer.\n" +
		"Education: B.S. from State University.\n" +
		"Skills: Python, SQL, machine learning"
	rec, err := ex.Extract(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Jane Q. Public", rec.Name)
	assert.Equal(t, "jane@example.com", rec.Email)
	assert.Equal(t, "(555)123-4567", rec.Phone)
	assert.ElementsMatch(t, []string{"python", "sql", "machine learning"}, rec.Skills)
	assert.Contains(t, rec.Experience, "5 years at Acme Corp")
	assert.Contains(t, rec.Education, "State University")
}
