package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	i := Get()
	if i.Version != Version || i.Commit != Commit || i.Date != Date {
		t.Errorf("Get() = %+v", i)
	}
	if i.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", i.GoVersion)
	}
}

func TestShortCommit(t *testing.T) {
	tests := []struct {
		commit, want string
	}{
		{"none", "none"},
		{"0123456789abcdef", "0123456"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := (Info{Commit: tt.commit}).ShortCommit(); got != tt.want {
			t.Errorf("ShortCommit(%q) = %q, want %q", tt.commit, got, tt.want)
		}
	}
}

func TestTemplateAndUserAgent(t *testing.T) {
	if !strings.HasPrefix(Template(), "{{.Name}} "+Version) {
		t.Errorf("Template() = %q", Template())
	}
	if got := UserAgent(); got != "topoview/"+Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
