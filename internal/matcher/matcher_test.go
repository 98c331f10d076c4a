package matcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/types"
)

// mockAnnotator 测试用标注器：按空白切词，词元即表层形式，
// 不产出停用词、标点和实体。足以让预处理管道确定性运转。
type mockAnnotator struct {
	err error
	// calls 记录Annotate被调用的次数
	calls int
}

func (m *mockAnnotator) Annotate(_ context.Context, text string) (*types.Annotation, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	words := strings.Fields(text)
	tokens := make([]types.Token, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, types.Token{Text: w, Lemma: strings.ToLower(w)})
	}
	return &types.Annotation{Tokens: tokens}, nil
}

func TestKeywordScore(t *testing.T) {
	resume := map[string]struct{}{"python": {}, "sql": {}}

	t.Run("交集比例", func(t *testing.T) {
		job := map[string]struct{}{"python": {}, "sql": {}, "go": {}}
		assert.InDelta(t, 2.0/3.0, keywordScore(resume, job), 1e-9)
	})

	t.Run("全部命中为1", func(t *testing.T) {
		job := map[string]struct{}{"python": {}}
		assert.Equal(t, 1.0, keywordScore(resume, job))
	})

	t.Run("岗位技能为空定义为0", func(t *testing.T) {
		assert.Equal(t, 0.0, keywordScore(resume, map[string]struct{}{}))
	})

	t.Run("无交集为0", func(t *testing.T) {
		job := map[string]struct{}{"rust": {}}
		assert.Equal(t, 0.0, keywordScore(resume, job))
	})
}

// TestEngineScore 端到端评分：各分量与加权总分
func TestEngineScore(t *testing.T) {
	engine := NewEngine(&mockAnnotator{})
	ctx := context.Background()

	resume := &types.ResumeRecord{
		Name:       "Jane Public",
		Skills:     []string{"python", "sql"},
		Experience: "5 years building services",
	}
	job := &types.JobRecord{
		JobID:              "job-1",
		Title:              "Backend Engineer",
		Skills:             []string{"python", "sql", "go"},
		Description:        "5 years building services",
		RequiredExperience: "3 years",
	}

	score, err := engine.Score(ctx, resume, job)
	require.NoError(t, err)

	// keyword = 2/3, semantic = 1（文本一致）, experience = 1（5 ≥ 3）
	assert.InDelta(t, 66.67, score.KeywordScore, 0.01)
	assert.InDelta(t, 100.0, score.SemanticScore, 0.01)
	assert.InDelta(t, 100.0, score.ExperienceScore, 0.01)
	// total = round(100 × (0.4×2/3 + 0.4×1 + 0.2×1), 2)
	assert.InDelta(t, 86.67, score.TotalScore, 0.01)
}

// TestEngineScoreCustomWeights 权重可在服务级覆盖
func TestEngineScoreCustomWeights(t *testing.T) {
	engine := NewEngine(&mockAnnotator{}, WithWeights(types.ScoreWeights{
		Keyword: 1.0, Semantic: 0.0, Experience: 0.0,
	}))

	resume := &types.ResumeRecord{Skills: []string{"python"}}
	job := &types.JobRecord{JobID: "job-1", Skills: []string{"python", "go"}}

	score, err := engine.Score(context.Background(), resume, job)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, score.TotalScore, 0.01, "总分应只由关键词分量决定")
}

// TestEngineScoreAnnotatorError 匹配引擎对标注错误是严格的：直接上抛
func TestEngineScoreAnnotatorError(t *testing.T) {
	engine := NewEngine(&mockAnnotator{err: errors.New("标注服务不可用")})

	resume := &types.ResumeRecord{Experience: "5 years"}
	job := &types.JobRecord{JobID: "job-1"}

	_, err := engine.Score(context.Background(), resume, job)
	require.Error(t, err)
}

// TestEngineRank 批量排序：按总分降序，并列保持输入顺序
func TestEngineRank(t *testing.T) {
	engine := NewEngine(&mockAnnotator{})
	ctx := context.Background()

	resume := &types.ResumeRecord{
		Skills:     []string{"python", "sql"},
		Experience: "5 years of backend work",
	}
	jobs := []*types.JobRecord{
		{JobID: "weak", Skills: []string{"rust", "c++"}},
		{JobID: "tie-a", Skills: []string{"python", "sql"}},
		{JobID: "tie-b", Skills: []string{"python", "sql"}},
	}

	ranked, err := engine.Rank(ctx, resume, jobs)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "tie-a", ranked[0].Job.JobID)
	assert.Equal(t, "tie-b", ranked[1].Job.JobID, "总分并列时保持输入顺序")
	assert.Equal(t, "weak", ranked[2].Job.JobID)
	assert.Equal(t, ranked[0].Score.TotalScore, ranked[1].Score.TotalScore)
	assert.Greater(t, ranked[0].Score.TotalScore, ranked[2].Score.TotalScore)
}

// TestEngineRankDeterministic 相同输入重复排序结果逐位一致
func TestEngineRankDeterministic(t *testing.T) {
	engine := NewEngine(&mockAnnotator{})
	ctx := context.Background()

	resume := &types.ResumeRecord{
		Skills:     []string{"python", "react", "sql"},
		Experience: "4 years web development experience",
		Education:  "B.S. Computer Science",
	}
	jobs := []*types.JobRecord{
		{JobID: "a", Skills: []string{"python"}, Description: "web development with python", RequiredExperience: "2 years"},
		{JobID: "b", Skills: []string{"react", "sql"}, Description: "frontend work", RequiredExperience: "5 years"},
		{JobID: "c", Skills: []string{"go", "sql"}, Description: "backend services in go"},
	}

	first, err := engine.Rank(ctx, resume, jobs)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := engine.Rank(ctx, resume, jobs)
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Job.JobID, again[j].Job.JobID)
			assert.Equal(t, *first[j].Score, *again[j].Score)
		}
	}
}

// TestEngineRankEmptyJobs 空岗位列表返回空结果而不是错误
func TestEngineRankEmptyJobs(t *testing.T) {
	engine := NewEngine(&mockAnnotator{})
	resume := &types.ResumeRecord{Skills: []string{"python"}}

	ranked, err := engine.Rank(context.Background(), resume, nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

// TestEngineRankReusesResumeProfile 批量评分时简历侧只预处理一次
func TestEngineRankReusesResumeProfile(t *testing.T) {
	mock := &mockAnnotator{}
	engine := NewEngine(mock)

	resume := &types.ResumeRecord{
		Skills:     []string{"python"},
		Experience: "3 years of work",
	}
	jobs := []*types.JobRecord{
		{JobID: "a", Skills: []string{"python"}},
		{JobID: "b", Skills: []string{"python"}},
		{JobID: "c", Skills: []string{"python"}},
	}

	_, err := engine.Rank(context.Background(), resume, jobs)
	require.NoError(t, err)

	// 简历侧2次（语义文本+年数），岗位侧每个0次（描述与要求均为空串跳过标注）
	assert.Equal(t, 2, mock.calls)
}
