// Package codex adapts the codex-style agent CLI: subcommand-based
// new/resume addressing, `$skill` invocation, NDJSON output on both buffered
// and streaming turns, and the item/thread event vocabulary.
//
// Unlike the claude CLI, codex assigns its own thread id and requires it for
// resumes. The id is announced by a thread.started event, captured here and
// surfaced as the turn's native resume identity for the session registry.
package codex

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/sharmasuraj0123/xo-cowork-api/agent"
	"github.com/sharmasuraj0123/xo-cowork-api/cliexec"
	"github.com/sharmasuraj0123/xo-cowork-api/skills"
)

// SkillSigil is the in-band skill invocation marker for this CLI.
const SkillSigil = '$'

// Client executes turns against the codex CLI.
type Client struct {
	runner  *cliexec.Runner
	prompts skills.Resolver
	logger  *slog.Logger
	config  Config
}

// Config holds client configuration.
type Config struct {
	// CLIPath is the CLI binary (default "codex", resolved via PATH).
	CLIPath string

	// WorkDir is the working directory for the spawned process.
	WorkDir string
}

// NewClient creates a codex backend.
func NewClient(cfg Config, runner *cliexec.Runner, prompts skills.Resolver, logger *slog.Logger) *Client {
	if cfg.CLIPath == "" {
		cfg.CLIPath = "codex"
	}
	if prompts == nil {
		prompts = skills.SigilResolver{Sigil: SkillSigil}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{config: cfg, runner: runner, prompts: prompts, logger: logger}
}

// Name returns the backend name.
func (c *Client) Name() string { return "codex" }

// resumeID resolves the thread identity for a resume turn. The session id
// stands in until a native thread id has been learned.
func (c *Client) resumeID(req agent.TurnRequest) (string, error) {
	if req.ResumeID != "" {
		return req.ResumeID, nil
	}
	if req.SessionID != "" {
		return req.SessionID, nil
	}
	return "", agent.ErrNoResumeTarget
}

// Ask executes one buffered turn. The CLI emits NDJSON even in buffered
// mode; item text is aggregated and the thread id captured along the way.
func (c *Client) Ask(ctx context.Context, req agent.TurnRequest) (*agent.TurnResult, error) {
	prompt := c.prompts.Resolve(req.Question, req.AgentType)

	var args []string
	if req.IsNew {
		args = buildArgs(c.config.CLIPath, true, "", prompt)
	} else {
		id, err := c.resumeID(req)
		if err != nil {
			return nil, err
		}
		args = buildArgs(c.config.CLIPath, false, id, prompt)
	}

	c.logger.Info("codex turn", "session_id", req.SessionID, "new", req.IsNew)

	output, err := c.runner.Run(ctx, args, c.config.WorkDir)
	if err != nil {
		return nil, err
	}

	text, threadID := parseBufferedOutput(output)
	c.logger.Info("codex responded", "chars", len(text), "thread_id", threadID)
	return &agent.TurnResult{Text: text, NativeID: threadID}, nil
}

// AskStream executes one streaming turn. The stream's native id becomes
// available once the event channel is exhausted.
func (c *Client) AskStream(ctx context.Context, req agent.TurnRequest) (*agent.Stream, error) {
	prompt := c.prompts.Resolve(req.Question, req.AgentType)

	var args []string
	if req.IsNew {
		args = buildArgs(c.config.CLIPath, true, "", prompt)
	} else {
		id, err := c.resumeID(req)
		if err != nil {
			return nil, err
		}
		args = buildArgs(c.config.CLIPath, false, id, prompt)
	}

	c.logger.Info("codex streaming turn", "session_id", req.SessionID, "new", req.IsNew)

	dec := &lineDecoder{}
	events, err := c.runner.Stream(ctx, args, c.config.WorkDir, dec)
	if err != nil {
		return nil, err
	}
	return agent.NewStream(events, func() string { return dec.threadID }), nil
}

// parseBufferedOutput aggregates item text from buffered NDJSON output and
// returns it with any thread id seen. Undecodable lines are skipped.
func parseBufferedOutput(output string) (text, threadID string) {
	var parts []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ev threadEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		switch {
		case ev.Type == "thread.started":
			if ev.ThreadID != "" {
				threadID = ev.ThreadID
			}
		case strings.HasPrefix(ev.Type, "item."):
			if t := extractItemText(ev.Item); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "")), threadID
}
