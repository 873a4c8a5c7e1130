/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"sort"
)

// CoreCommands are the commands every build must register, with their group.
var CoreCommands = map[string]CommandGroup{
	"pack":    GroupPack,
	"inspect": GroupInspect,
	"roots":   GroupInspect,
	"version": GroupSupport,
}

// ValidationError describes one registry inconsistency
type ValidationError struct {
	Command string
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Validate checks that the core commands are registered in their expected
// group and that no command uses an unknown group. Errors are sorted by command.
func Validate(registry *Registry) []ValidationError {
	var errs []ValidationError

	for name, group := range CoreCommands {
		cmd, ok := registry.GetCommand(name)
		if !ok {
			errs = append(errs, ValidationError{Command: name, Message: "core command is not registered"})
			continue
		}
		if cmd.Group != group {
			errs = append(errs, ValidationError{Command: name, Message: fmt.Sprintf("incorrect group: expected %s, got %s", group, cmd.Group)})
		}
	}

	registry.mu.RLock()
	for name, cmd := range registry.commands {
		if !knownGroup(cmd.Group) {
			errs = append(errs, ValidationError{Command: name, Message: fmt.Sprintf("uses invalid group: %s", cmd.Group)})
		}
	}
	registry.mu.RUnlock()

	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Command != errs[j].Command {
			return errs[i].Command < errs[j].Command
		}
		return errs[i].Message < errs[j].Message
	})
	return errs
}

func knownGroup(g CommandGroup) bool {
	for _, k := range Groups {
		if k == g {
			return true
		}
	}
	return false
}
