// Package skills resolves an optional caller-supplied agent type into a final
// prompt, using either an in-band skill invocation (claude-style `/name`,
// codex-style `$name`) or an instruction document loaded from a profile
// directory.
package skills

import "strings"

// Resolver turns a question and an optional agent type into the final prompt
// handed to a backend. Exactly one strategy is active per backend: SigilResolver
// (in-band skill invocation) or InstructionStore (instruction documents).
type Resolver interface {
	Resolve(question, agentType string) string
}

// SigilResolver resolves profiles as in-band skill invocations.
type SigilResolver struct {
	Sigil rune
}

// Resolve prefixes the question with the backend's skill invocation marker.
func (r SigilResolver) Resolve(question, agentType string) string {
	return Prefix(r.Sigil, question, agentType)
}

// Name converts a caller-supplied agent type into a normalized skill name.
// Trims, lowercases, and maps underscores to hyphens so "Code_Review" and
// "code-review" resolve identically. Returns "" when no profile is requested.
func Name(agentType string) string {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(agentType)), "_", "-")
	return normalized
}

// Prefix builds a prompt that invokes a skill in-band: the backend's sigil
// character, the normalized skill name, a space, and the question. When no
// profile is requested the question passes through unchanged.
func Prefix(sigil rune, question, agentType string) string {
	name := Name(agentType)
	if name == "" {
		return question
	}
	return string(sigil) + name + " " + question
}
