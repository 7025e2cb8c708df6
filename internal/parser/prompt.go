// Package parser turns raw device CLI output into typed facts.
//
// Every function here is pure: no I/O, no shared state. Each extraction rule
// is a single pattern with named groups, and absence is always an explicit
// error or an explicit zero fact, never a silent nil.
package parser

import (
	"regexp"
	"strings"

	"fleetpoll/internal/domain"
)

// promptPattern captures the hostname in front of the first privilege
// delimiter on the line. Required group: host.
var promptPattern = regexp.MustCompile(`(?P<host>\S+)[#>]`)

// promptEndPattern matches text that ends with a prompt waiting for input
var promptEndPattern = regexp.MustCompile(`\S[#>]\s*$`)

// Hostname extracts the device name from a CLI prompt such as "R1#" or
// "core-sw>". Only the last non-empty line is considered, since sessions
// often hand back the banner or echoed input ahead of the prompt. Text after
// the delimiter ("R1# show version") is ignored.
func Hostname(prompt string) (string, error) {
	line := lastLine(prompt)

	m := promptPattern.FindStringSubmatch(line)
	if m == nil {
		return "", &domain.MalformedPromptError{Prompt: prompt}
	}
	return m[promptPattern.SubexpIndex("host")], nil
}

// IsPrompt reports whether text ends with a CLI prompt
func IsPrompt(text string) bool {
	return promptEndPattern.MatchString(lastLine(text))
}

// Privileged reports whether the prompt is in enable mode ("#")
func Privileged(prompt string) bool {
	return strings.HasSuffix(strings.TrimSpace(prompt), "#")
}

func lastLine(s string) string {
	s = strings.TrimRight(s, " \t\r\n")
	if idx := strings.LastIndexAny(s, "\r\n"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}
