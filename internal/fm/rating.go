package fm

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// NormalizeRating 把五花八门的评分表示归一化为数字，或判定为缺失。
//
// 输入可能是：真数字、数字字符串、带 "%" 后缀的数字字符串、无法解析的字符串、nil。
// 规则：
// 1) 先做“前缀”浮点解析（与 JS parseFloat 一致：只消费开头的数字部分，
//    所以 "9.2/10" 解析为 9.2 —— 这是刻意保留的行为，不是 bug）
// 2) 失败且原始值含 "%"：去掉 "%" 后重试
// 3) 仍失败：判定缺失，调用方必须整行省略（禁止输出空值 key）
//
// 0 是合法评分，必须输出，不能当缺失处理。
func NormalizeRating(raw any) (float64, bool) {
	s := cast.ToString(raw)
	if v, ok := parseFloatPrefix(s); ok {
		return v, true
	}
	if strings.Contains(s, "%") {
		return parseFloatPrefix(strings.ReplaceAll(s, "%", ""))
	}
	return 0, false
}

// FormatRating 用最短十进制形式格式化归一化后的评分（8.5 -> "8.5"，85 -> "85"）。
func FormatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseFloatPrefix 解析字符串开头的浮点数（可选符号、小数点、指数），
// 忽略其后的任何内容。没有可解析前缀、或结果非有限数时返回 false。
func parseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimSpace(s)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}

	// 指数部分只在完整（e/E [+|-] 数字）时才消费，"9e" 只取 "9"。
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			expDigits++
		}
		if expDigits > 0 {
			i = j
		}
	}

	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseIntPrefix 解析字符串开头的整数（可选符号），忽略其后内容。
// year 字段用它：catalog 的 ProductionYear 偶尔是字符串。
func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimSpace(s)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return v, true
}
