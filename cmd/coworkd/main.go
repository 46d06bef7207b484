// coworkd - HTTP adapter exposing CLI coding agents as a question/answer API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sharmasuraj0123/xo-cowork-api/agent"
	"github.com/sharmasuraj0123/xo-cowork-api/auth"
	"github.com/sharmasuraj0123/xo-cowork-api/chatapi"
	"github.com/sharmasuraj0123/xo-cowork-api/claude"
	"github.com/sharmasuraj0123/xo-cowork-api/cliexec"
	"github.com/sharmasuraj0123/xo-cowork-api/codex"
	"github.com/sharmasuraj0123/xo-cowork-api/config"
	"github.com/sharmasuraj0123/xo-cowork-api/server"
	"github.com/sharmasuraj0123/xo-cowork-api/session"
	"github.com/sharmasuraj0123/xo-cowork-api/skills"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "coworkd",
	Short: "Agent adapter server",
	Long: `coworkd - HTTP adapter exposing CLI coding agents as a question/answer API.

Wraps the claude and codex CLIs behind buffered and streaming endpoints,
keeps per-project conversation sessions, and mirrors exchanges into an
external chat API.

Environment:
  HOST, PORT          Listen address (default: 0.0.0.0:5002)
  AGENT_BACKEND       Backend to run: claude or codex
  CHAT_API_BASE_URL   Chat history API base URL
  CHAT_API_TOKEN      Static bearer token for the chat API
  CLAUDE_CLI_PATH     claude binary path
  CODEX_CLI_PATH      codex binary path
  CLAUDE_TIMEOUT      Turn deadline in seconds
  INSTRUCTIONS_DIR    Switch profiles to instruction documents from this dir`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file (YAML, optional)")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the adapter server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	state := &auth.State{}
	if cfg.ChatAPI.Token != "" {
		state.SetStaticToken(cfg.ChatAPI.Token)
	}
	flow := auth.NewFlow(cfg.ChatAPI.BaseURL, state)

	svc, err := buildService(cfg, state, logger)
	if err != nil {
		return err
	}

	srv := server.New(svc, flow, cfg.ChatAPI.BaseURL, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, cfg.Listen)
}

// buildService wires the configured backend into a turn service. The chat
// history client draws bearer tokens from state, which the auth flow keeps
// fresh.
func buildService(cfg *config.Config, state *auth.State, logger *slog.Logger) (*agent.Service, error) {
	runner := &cliexec.Runner{Logger: logger, Timeout: cfg.Timeout()}
	registry := session.NewRegistry()

	var history agent.HistorySink
	if cfg.ChatAPI.BaseURL != "" {
		history = chatapi.NewClient(cfg.ChatAPI.BaseURL, state, logger)
	}

	var backend agent.Backend
	switch cfg.Backend {
	case "claude":
		backend = claude.NewClient(claude.Config{
			CLIPath:        cfg.Claude.CLIPath,
			WorkDir:        cfg.Claude.WorkDir,
			AddDirs:        cfg.Claude.AddDirs,
			PermissionMode: cfg.Claude.PermissionMode,
		}, runner, resolverFor(cfg, claude.SkillSigil, logger), logger)
	case "codex":
		backend = codex.NewClient(codex.Config{
			CLIPath: cfg.Codex.CLIPath,
			WorkDir: cfg.Codex.WorkDir,
		}, runner, resolverFor(cfg, codex.SkillSigil, logger), logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	return agent.NewService(backend, registry, history, logger), nil
}

// resolverFor picks the profile strategy from config.
func resolverFor(cfg *config.Config, sigil rune, logger *slog.Logger) skills.Resolver {
	if cfg.Skills.Mode == config.SkillsModeInstructions {
		return &skills.InstructionStore{
			Logger:         logger,
			Dir:            cfg.Skills.InstructionsDir,
			DefaultProfile: cfg.Skills.DefaultProfile,
		}
	}
	return skills.SigilResolver{Sigil: sigil}
}
