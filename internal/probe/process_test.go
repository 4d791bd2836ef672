package probe

import (
	"testing"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want model.ProcessCategory
	}{
		{"Google Chrome", model.CategoryBrowser},
		{"Chrome Helper (Renderer)", model.CategoryBrowser},
		{"firefox", model.CategoryBrowser},
		{"Microsoft Edge", model.CategoryBrowser},
		{"kernel_task", model.CategorySystemProcess},
		{"WindowServer", model.CategorySystemProcess},
		{"kworker/0:1", model.CategorySystemProcess},
		{"Spotify", model.CategoryMedia},
		{"VLC", model.CategoryMedia},
		{"Code Helper", model.CategoryDevTool},
		{"node", model.CategoryDevTool},
		{"python3.12", model.CategoryDevTool},
		{"dockerd", model.CategoryDevTool},
		{"Slack", model.CategoryOther},
		{"", model.CategoryOther},
	}

	for _, tt := range tests {
		if got := Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// A browser renderer process running under a dev-tool-ish name still
	// counts as a browser; the browser patterns are checked first.
	if got := Classify("chrome_crashpad_handler"); got != model.CategoryBrowser {
		t.Fatalf("Expected browser, got %s", got)
	}
}
