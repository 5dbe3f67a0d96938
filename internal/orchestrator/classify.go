package orchestrator

import (
	"regexp"
	"strings"
)

// counterPattern matches pacman's "( 3/10)" transaction counters.
var counterPattern = regexp.MustCompile(`\(\s*(\d+)/(\d+)\)`)

// phaseHints maps output keywords to coarse progress, mirroring the phase
// weighting pacman's own transaction goes through.
var phaseHints = []struct {
	keyword string
	percent int
}{
	{"loading", 40},
	{"downloading", 50},
	{"removing", 60},
	{"checking", 65},
	{"installing", 75},
	{"upgrading", 75},
}

// classifyLine turns one tool output line into a progress or log event.
// Counter lines give an exact percentage; phase keywords give a coarse one;
// everything else is a plain log line.
func classifyLine(text string) Event {
	if m := counterPattern.FindStringSubmatch(text); m != nil {
		cur := atoiSafe(m[1])
		total := atoiSafe(m[2])
		if total > 0 && cur <= total {
			return Event{Type: EventProgress, Percent: cur * 100 / total, Message: text}
		}
	}

	lower := strings.ToLower(text)
	for _, hint := range phaseHints {
		if strings.Contains(lower, hint.keyword) {
			return Event{Type: EventProgress, Percent: hint.percent, Message: text}
		}
	}

	return Event{Type: EventLog, Percent: -1, Message: text}
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
