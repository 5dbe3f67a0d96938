package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		evType  EventType
		percent int
	}{
		{"counter start", "( 1/4) installing glibc", EventProgress, 25},
		{"counter end", "( 4/4) installing gcc-libs", EventProgress, 100},
		{"counter no padding", "(3/10) upgrading linux", EventProgress, 30},
		{"downloading phase", "downloading core.db...", EventProgress, 50},
		{"loading phase", "loading packages...", EventProgress, 40},
		{"removing phase", "removing old-package...", EventProgress, 60},
		{"checking phase", "checking keys in keyring...", EventProgress, 65},
		{"plain output", "resolving dependencies...", EventLog, -1},
		{"warning line", ":: some transaction note", EventLog, -1},
		{"zero total ignored", "( 1/0) weird", EventLog, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := classifyLine(tt.line)
			assert.Equal(t, tt.evType, ev.Type)
			assert.Equal(t, tt.percent, ev.Percent)
			assert.Equal(t, tt.line, ev.Message)
		})
	}
}
