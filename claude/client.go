// Package claude adapts the claude-style agent CLI: flag-based new/resume
// addressing, `/skill` invocation, JSON or stream-json output, and the
// delta/assistant event vocabulary.
package claude

import (
	"context"
	"log/slog"

	"github.com/sharmasuraj0123/xo-cowork-api/agent"
	"github.com/sharmasuraj0123/xo-cowork-api/cliexec"
	"github.com/sharmasuraj0123/xo-cowork-api/skills"
)

// SkillSigil is the in-band skill invocation marker for this CLI.
const SkillSigil = '/'

// Client executes turns against the claude CLI.
type Client struct {
	runner  *cliexec.Runner
	prompts skills.Resolver
	logger  *slog.Logger
	config  Config
}

// Config holds client configuration.
type Config struct {
	// CLIPath is the CLI binary (default "claude", resolved via PATH).
	CLIPath string

	// WorkDir is the working directory for the spawned process.
	WorkDir string

	// AddDirs lists additional directories the CLI may access. Each is
	// passed as its own --add-dir flag.
	AddDirs []string

	// PermissionMode is passed through as --permission-mode when set.
	PermissionMode string
}

// NewClient creates a claude backend. A nil prompts resolver disables
// profile handling entirely; questions pass through unchanged.
func NewClient(cfg Config, runner *cliexec.Runner, prompts skills.Resolver, logger *slog.Logger) *Client {
	if cfg.CLIPath == "" {
		cfg.CLIPath = "claude"
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
func (c *Client) Name() string { return "claude" }

// resumeID validates the resume identity for a resume turn.
func (c *Client) resumeID(req agent.TurnRequest) (string, error) {
	if req.IsNew {
		return req.SessionID, nil
	}
	if req.ResumeID != "" {
		return req.ResumeID, nil
	}
	if req.SessionID != "" {
		return req.SessionID, nil
	}
	return "", agent.ErrNoResumeTarget
}

// Ask executes one buffered turn and returns the answer text.
func (c *Client) Ask(ctx context.Context, req agent.TurnRequest) (*agent.TurnResult, error) {
	id, err := c.resumeID(req)
	if err != nil {
		return nil, err
	}

	prompt := c.prompts.Resolve(req.Question, req.AgentType)
	args := buildArgs(c.config.CLIPath, req.IsNew, id, prompt, false, c.config.AddDirs, c.config.PermissionMode)

	c.logger.Info("claude turn", "session_id", req.SessionID, "new", req.IsNew)

	output, err := c.runner.Run(ctx, args, c.config.WorkDir)
	if err != nil {
		return nil, err
	}

	text := parseBufferedOutput(output)
	c.logger.Info("claude responded", "chars", len(text))
	return &agent.TurnResult{Text: text}, nil
}

// AskStream executes one streaming turn.
func (c *Client) AskStream(ctx context.Context, req agent.TurnRequest) (*agent.Stream, error) {
	id, err := c.resumeID(req)
	if err != nil {
		return nil, err
	}

	prompt := c.prompts.Resolve(req.Question, req.AgentType)
	args := buildArgs(c.config.CLIPath, req.IsNew, id, prompt, true, c.config.AddDirs, c.config.PermissionMode)

	c.logger.Info("claude streaming turn", "session_id", req.SessionID, "new", req.IsNew)

	events, err := c.runner.Stream(ctx, args, c.config.WorkDir, &lineDecoder{})
	if err != nil {
		return nil, err
	}
	return agent.NewStream(events, nil), nil
}
