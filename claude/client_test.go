package claude

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sharmasuraj0123/xo-cowork-api/agent"
	"github.com/sharmasuraj0123/xo-cowork-api/agentstream"
	"github.com/sharmasuraj0123/xo-cowork-api/cliexec"
)

// fakeCLI writes an executable script standing in for the real binary.
func fakeCLI(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claude")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAskBuffered(t *testing.T) {
	cli := fakeCLI(t, `echo '{"result":"hi from cli","is_error":false}'`)
	c := NewClient(Config{CLIPath: cli}, &cliexec.Runner{}, nil, nil)

	result, err := c.Ask(context.Background(), agent.TurnRequest{
		IsNew:     true,
		SessionID: "sid-1",
		Question:  "hello",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if result.Text != "hi from cli" {
		t.Errorf("text = %q", result.Text)
	}
	if result.NativeID != "" {
		t.Errorf("native id = %q, want empty", result.NativeID)
	}
}

func TestAskPlainTextFallback(t *testing.T) {
	cli := fakeCLI(t, `echo 'plain answer'`)
	c := NewClient(Config{CLIPath: cli}, &cliexec.Runner{}, nil, nil)

	result, err := c.Ask(context.Background(), agent.TurnRequest{
		IsNew: true, SessionID: "sid-1", Question: "q",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if result.Text != "plain answer" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestAskResumeWithoutIdentity(t *testing.T) {
	c := NewClient(Config{CLIPath: "/no/such/claude"}, &cliexec.Runner{}, nil, nil)

	_, err := c.Ask(context.Background(), agent.TurnRequest{Question: "q"})
	if !errors.Is(err, agent.ErrNoResumeTarget) {
		t.Fatalf("expected ErrNoResumeTarget, got %v", err)
	}
}

func TestAskStream(t *testing.T) {
	cli := fakeCLI(t, `
echo '{"type":"content_block_delta","delta":{"type":"text_delta","text":"one "}}'
echo '{"type":"content_block_delta","delta":{"type":"text_delta","text":"two"}}'
echo '{"type":"result","result":"one two"}'`)
	c := NewClient(Config{CLIPath: cli}, &cliexec.Runner{}, nil, nil)

	stream, err := c.AskStream(context.Background(), agent.TurnRequest{
		IsNew: true, SessionID: "sid-1", Question: "q",
	})
	if err != nil {
		t.Fatalf("AskStream failed: %v", err)
	}

	var got []agentstream.Event
	for ev := range stream.Events {
		got = append(got, ev)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3 (result suppressed): %v", len(got), got)
	}
	if tok, ok := got[0].(agentstream.TokenEvent); !ok || tok.Token != "one " {
		t.Errorf("first = %#v", got[0])
	}
	if _, ok := got[2].(agentstream.DoneEvent); !ok {
		t.Errorf("last = %#v, want done", got[2])
	}
	if stream.NativeID() != "" {
		t.Errorf("native id = %q, want empty", stream.NativeID())
	}
}
