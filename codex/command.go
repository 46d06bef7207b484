package codex

// buildArgs produces the argument vector for one turn. The CLI uses
// subcommand-based addressing: `exec` starts a fresh thread, `exec resume`
// continues one. resumeID must already be resolved to the thread identity.
func buildArgs(cliPath string, isNew bool, resumeID, prompt string) []string {
	if isNew {
		return []string{cliPath, "exec", "--json", prompt}
	}
	return []string{cliPath, "exec", "resume", "--json", resumeID, prompt}
}
