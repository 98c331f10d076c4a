package matcher

import (
	"regexp"
	"strconv"
	"strings"

	"resume-match-go/internal/types"
)

// 数字+year 模式，如 "5 years"、"3+ years"
var yearsRegexp = regexp.MustCompile(`(\d+)\s*\+?\s*years?`)

// yearsFromText 从自由文本和标注中提取经验年数。
// 优先取DATE实体中含 "year" 的片段的前导整数，
// 其次对全文做 数字+year 正则兜底；都没有时返回0。
func yearsFromText(text string, ann *types.Annotation) int {
	if ann != nil {
		for _, ent := range ann.EntitiesByLabel(types.EntityDate) {
			lower := strings.ToLower(ent.Text)
			if !strings.Contains(lower, "year") {
				continue
			}
			if years, ok := leadingInt(lower); ok {
				return years
			}
		}
	}

	if m := yearsRegexp.FindStringSubmatch(strings.ToLower(text)); m != nil {
		if years, err := strconv.Atoi(m[1]); err == nil {
			return years
		}
	}

	return 0
}

// leadingInt 取字符串首个空白分隔字段的整数值
func leadingInt(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(fields[0], "+"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// experienceScore 经验年限分量：
// available ≥ required 记满分；required为0视为无要求，自动满分
// （同时规避除零）；否则按比例给分。
func experienceScore(available, required int) float64 {
	if required <= 0 {
		return 1.0
	}
	if available >= required {
		return 1.0
	}
	if available <= 0 {
		return 0
	}
	return float64(available) / float64(required)
}
