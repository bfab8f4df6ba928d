package requisition

import (
	"regexp"
	"strings"
)

// 请购单号识别：PR 前缀 + 日期段 + 随机段，长度族从严到宽依次尝试。
// 嵌在输入任意位置的单号都要能被识别。
var requestIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`PR\d{8}[A-Z0-9]{6}`),
	regexp.MustCompile(`PR\d{8}[A-Z0-9]{5,8}`),
	regexp.MustCompile(`PR\d{6,8}[A-Z0-9]{4,8}`),
}

// 兜底：任何 PR 开头的长字母数字串
var requestIDFallback = regexp.MustCompile(`PR[A-Z0-9]{8,}`)

// ExtractRequestID 从专员输入中提取请购单号；无则返回空串
func ExtractRequestID(input string) string {
	upper := strings.ToUpper(input)
	for _, p := range requestIDPatterns {
		if m := p.FindString(upper); m != "" {
			return m
		}
	}
	return requestIDFallback.FindString(upper)
}
