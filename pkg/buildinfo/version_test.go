package buildinfo

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	defer func() { Version = old }()

	if got := Get().Version; got != "v1.2.3" {
		t.Errorf("Get().Version = %q", got)
	}
	if got := UserAgent(); got != "hopgraph/v1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
	if !strings.Contains(Template(), "v1.2.3") {
		t.Errorf("Template() = %q", Template())
	}
}
