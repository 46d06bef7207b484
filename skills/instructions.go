package skills

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// requestSeparator joins an instruction document to the live question so the
// two are unambiguously distinguishable downstream.
const requestSeparator = "\n\nUser request:\n"

// InstructionStore resolves profile names against a directory of instruction
// documents, one .md file per profile. Documents are read fresh on every call
// so edits take effect on the next turn without a restart.
type InstructionStore struct {
	Logger *slog.Logger

	// Dir is the profile directory. Created on first lookup if absent.
	Dir string

	// DefaultProfile is consulted when the requested profile is missing.
	DefaultProfile string
}

func (s *InstructionStore) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Resolve builds the final prompt for a question. Fallback order: requested
// profile, then the configured default profile, then the raw question.
func (s *InstructionStore) Resolve(question, agentType string) string {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		s.logger().Warn("cannot ensure instructions directory", "dir", s.Dir, "error", err)
		return question
	}

	for _, name := range []string{Name(agentType), Name(s.DefaultProfile)} {
		if name == "" {
			continue
		}
		text, ok := s.load(name)
		if ok {
			return text + requestSeparator + question
		}
	}
	return question
}

// load reads one profile document. Read failures other than absence are
// logged and treated as a missing profile.
func (s *InstructionStore) load(name string) (string, bool) {
	path := filepath.Join(s.Dir, name+".md")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false
	}
	if err != nil {
		s.logger().Warn("skipping unreadable instruction profile", "profile", name, "error", err)
		return "", false
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false
	}
	return text, true
}
