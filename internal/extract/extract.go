// Package extract pulls the patched contract out of an analysis response.
package extract

import (
	"regexp"
	"strings"
)

// solidityFence matches the first ```solidity ... ``` block. The body is
// matched lazily so two consecutive blocks are not merged into one.
var solidityFence = regexp.MustCompile("```solidity([\\s\\S]*?)```")

// Patch returns the trimmed contents of the first fenced Solidity block in
// text and true, or ("", false) when there is none. An empty block counts as
// no patch. It never fails.
func Patch(text string) (string, bool) {
	m := solidityFence.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return "", false
	}
	return body, true
}
