package extractor

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// 邮箱：ASCII本地部分 + 域名 + 至少2位字母的TLD，取第一个命中
	emailRegexp = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// 电话：北美格式。可选+1前缀、可选括号区号、3-3-4分组
	// （-/./空格分隔），可选 ext/x + 1-5位分机号。
	// 已知限制：仅覆盖北美号码格式，其他地区号码不在此模式内。
	phoneRegexp = regexp.MustCompile(`(?i)(?:\+1[-.\s]?)?(?:\(\d{3}\)[-.\s]?|\d{3}[-.\s])\d{3}[-.\s]\d{4}(?:\s*(?:ext|x)\.?\s*\d{1,5})?`)

	// 空白折叠：所有空白段（含换行）压成单个空格
	whitespaceRegexp = regexp.MustCompile(`\s+`)
)

// NormalizeText 折叠全部空白并去掉首尾空格。
// 这是单向有损变换：版式信息（缩进、空行）在此丢失，
// 因此章节切分必须依赖标注的句子边界而不是版式。
func NormalizeText(text string) string {
	return strings.TrimSpace(whitespaceRegexp.ReplaceAllString(text, " "))
}

// findEmail 返回文本中第一个邮箱，未找到时为空串
func findEmail(text string) string {
	return emailRegexp.FindString(text)
}

// findPhone 返回文本中第一个电话号码，内部空白已去除，未找到时为空串
func findPhone(text string) string {
	match := phoneRegexp.FindString(text)
	if match == "" {
		return ""
	}
	// 规范化：去掉内嵌空白
	return whitespaceRegexp.ReplaceAllString(match, "")
}

// isTitleCaseWord 判断是否为严格首字母大写词：
// 首字符大写字母，其余为小写字母或 .'- （允许 "Q." 这样的中间名缩写）
func isTitleCaseWord(word string) bool {
	runes := []rune(word)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsLower(r) || r == '.' || r == '\'' || r == '-' {
			continue
		}
		return false
	}
	return true
}

// isStrictNameLine 判断一行是否为2-3个严格首字母大写词（典型的抬头姓名行）
func isStrictNameLine(line string) bool {
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 3 {
		return false
	}
	for _, w := range words {
		if !isTitleCaseWord(w) {
			return false
		}
	}
	return true
}

// isLooseNameLine 宽松匹配：恰好2个词且均以大写字母开头
// （允许 "JANE PUBLIC"、"McDonald" 这类严格模式放掉的拼写）
func isLooseNameLine(line string) bool {
	words := strings.Fields(line)
	if len(words) != 2 {
		return false
	}
	for _, w := range words {
		runes := []rune(w)
		if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
			return false
		}
	}
	return true
}

// headLines 返回原始文本（未规范化）的前n个非空物理行
func headLines(rawText string, n int) []string {
	var lines []string
	for _, line := range strings.Split(rawText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
		if len(lines) >= n {
			break
		}
	}
	return lines
}

// containsPhrase 在已规范化的小写文本中查找短语，要求短语两侧
// 不是字母或数字（词边界检查，避免 "java" 命中 "javascript"）
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for start := 0; ; {
		idx := strings.Index(text[start:], phrase)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(phrase)
		if boundaryAt(text, idx-1) && boundaryAt(text, end) {
			return true
		}
		start = idx + 1
	}
}

// boundaryAt 判断文本中指定字节位置是否构成词边界
func boundaryAt(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	r := rune(text[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// truncateRunes 按字符数截断，用于限制章节文本的存储/展示体积
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
