package utils

import (
	"strings"
	"unicode"
)

// CamelToSnake 将驼峰式命名转换为下划线命名
// 连续大写字母视为一个单词，例如 HTTPHandler -> http_handler
func CamelToSnake(camelStr string) string {
	if camelStr == "" {
		return ""
	}

	runes := []rune(camelStr)
	length := len(runes)

	var result strings.Builder
	result.Grow(length + 4)

	for i, current := range runes {
		if !unicode.IsUpper(current) {
			result.WriteRune(current)
			continue
		}

		if i > 0 {
			prev := runes[i-1]
			nextIsLower := i < length-1 && unicode.IsLower(runes[i+1])
			// 小写或数字后接大写，或者连续大写字母的最后一个后接小写时切分
			if (unicode.IsLower(prev) || unicode.IsDigit(prev)) ||
				(unicode.IsUpper(prev) && nextIsLower) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(unicode.ToLower(current))
	}

	return result.String()
}
