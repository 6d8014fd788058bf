// Package validation checks values that end up in a process invocation or
// an outgoing request before they are used.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateArgument rejects shell metacharacters and path traversal in a
// value passed to an external program.
func ValidateArgument(arg string) error {
	dangerous := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\n"}
	for _, char := range dangerous {
		if strings.Contains(arg, char) {
			return fmt.Errorf("contains dangerous character: %q", char)
		}
	}

	if strings.Contains(arg, "..") {
		return fmt.Errorf("contains path traversal: %s", arg)
	}

	return nil
}

// ValidateCommand checks an executable against an allowlist. A path is
// accepted when its base name is allowed.
func ValidateCommand(command string, allowedCommands map[string]bool) error {
	if command == "" {
		return fmt.Errorf("command cannot be empty")
	}

	if !allowedCommands[filepath.Base(command)] {
		return fmt.Errorf("command '%s' is not allowed", command)
	}

	if err := ValidateArgument(command); err != nil {
		return fmt.Errorf("invalid command '%s': %w", command, err)
	}

	return nil
}

// ValidateHeader rejects header names and values that could split a request.
func ValidateHeader(name, value string) error {
	if name == "" {
		return fmt.Errorf("header name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\r\n:") {
		return fmt.Errorf("invalid header name %q", name)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("header %s contains a line break", name)
	}
	return nil
}
