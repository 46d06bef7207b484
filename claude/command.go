package claude

// buildArgs produces the exact argument vector for one turn. It is a pure
// function of its inputs: new turns direct the CLI to adopt sessionID as the
// conversation identity, resume turns address the existing session directly.
func buildArgs(cliPath string, isNew bool, sessionID, prompt string, streaming bool, addDirs []string, permissionMode string) []string {
	args := []string{cliPath}

	if isNew {
		args = append(args, "--session-id", sessionID)
	} else {
		args = append(args, "--resume", sessionID)
	}

	args = append(args, "--print")
	if streaming {
		// stream-json output requires --verbose.
		args = append(args, "--verbose", "--output-format", "stream-json")
	} else {
		args = append(args, "--output-format", "json")
	}

	for _, dir := range addDirs {
		args = append(args, "--add-dir", dir)
	}
	if permissionMode != "" {
		args = append(args, "--permission-mode", permissionMode)
	}

	args = append(args, "-p", prompt)
	return args
}
