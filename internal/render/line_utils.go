package render

import "strings"

// IsBlankLineSpacesOnly 判断行是否为空或仅包含空格。
func IsBlankLineSpacesOnly(line Line) bool {
	for _, sp := range line.Spans {
		if strings.Trim(sp.Text, " ") != "" {
			return false
		}
	}
	return true
}

// TrimBlankLines 去掉首尾的空白行。
func TrimBlankLines(lines []Line) []Line {
	start, end := 0, len(lines)
	for start < end && IsBlankLineSpacesOnly(lines[start]) {
		start++
	}
	for end > start && IsBlankLineSpacesOnly(lines[end-1]) {
		end--
	}
	return lines[start:end]
}
