package matcher

import "math"

// tfidfCosine 计算两篇预处理后文档（词串切片）的TF-IDF余弦相似度。
// 向量化只在这一对文档上拟合：每次比对自包含、可复现，
// 代价是"罕见/常见"只相对这一对而言，分数成对可比但没有全局标定。
//
// 权重公式与参考实现保持一致：tf为原始词频，
// idf = ln((1+n)/(1+df)) + 1（n=2，平滑），向量做L2归一化。
// 非负向量的余弦相似度落在 [0,1]。
func tfidfCosine(docA, docB []string) float64 {
	if len(docA) == 0 || len(docB) == 0 {
		return 0
	}

	// 构建两篇文档的并集词表
	vocab := make(map[string]int)
	for _, term := range docA {
		if _, ok := vocab[term]; !ok {
			vocab[term] = len(vocab)
		}
	}
	for _, term := range docB {
		if _, ok := vocab[term]; !ok {
			vocab[term] = len(vocab)
		}
	}

	tfA := termFrequencies(docA, vocab)
	tfB := termFrequencies(docB, vocab)

	// 平滑IDF：df ∈ {1,2}，n=2
	const numDocs = 2.0
	vecA := make([]float64, len(vocab))
	vecB := make([]float64, len(vocab))
	for _, idx := range vocab {
		df := 0.0
		if tfA[idx] > 0 {
			df++
		}
		if tfB[idx] > 0 {
			df++
		}
		idf := math.Log((1+numDocs)/(1+df)) + 1
		vecA[idx] = tfA[idx] * idf
		vecB[idx] = tfB[idx] * idf
	}

	l2Normalize(vecA)
	l2Normalize(vecB)

	// 归一化后余弦相似度即点积
	var dot float64
	for i := range vecA {
		dot += vecA[i] * vecB[i]
	}
	// 浮点误差夹回 [0,1]
	if dot < 0 {
		return 0
	}
	if dot > 1 {
		return 1
	}
	return dot
}

// termFrequencies 统计文档在词表索引上的原始词频
func termFrequencies(doc []string, vocab map[string]int) []float64 {
	tf := make([]float64, len(vocab))
	for _, term := range doc {
		tf[vocab[term]]++
	}
	return tf
}

// l2Normalize 向量L2归一化（就地修改）
func l2Normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}
