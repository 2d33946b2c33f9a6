package controller

import "regexp"

// argPattern은 따옴표로 감싼 구간(한 글자 이상) 또는 공백이 아닌 문자의 연속에 일치합니다.
var argPattern = regexp.MustCompile(`"([^"]+)"|(\S+)`)

// ParseArguments는 s를 왼쪽부터 겹치지 않게 토큰으로 나눕니다.
// 따옴표 구간은 따옴표를 제거한 하나의 토큰이 됩니다. 에러는 반환하지 않습니다.
func ParseArguments(s string) []string {
	matches := argPattern.FindAllStringSubmatch(s, -1)
	args := make([]string, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" {
			args = append(args, m[1])
		} else {
			args = append(args, m[2])
		}
	}
	return args
}
