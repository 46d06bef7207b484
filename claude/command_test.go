package claude

import (
	"reflect"
	"testing"
)

func TestBuildArgsNewBuffered(t *testing.T) {
	got := buildArgs("claude", true, "sid-1", "hello", false, nil, "")
	want := []string{
		"claude", "--session-id", "sid-1", "--print",
		"--output-format", "json", "-p", "hello",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBuildArgsResumeStreaming(t *testing.T) {
	got := buildArgs("claude", false, "sid-1", "hello", true, nil, "")
	want := []string{
		"claude", "--resume", "sid-1", "--print",
		"--verbose", "--output-format", "stream-json", "-p", "hello",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBuildArgsAddDirsAndPermissionMode(t *testing.T) {
	got := buildArgs("/usr/local/bin/claude", true, "sid-1", "q", false,
		[]string{"/a", "/b"}, "acceptEdits")
	want := []string{
		"/usr/local/bin/claude", "--session-id", "sid-1", "--print",
		"--output-format", "json",
		"--add-dir", "/a", "--add-dir", "/b",
		"--permission-mode", "acceptEdits",
		"-p", "q",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
