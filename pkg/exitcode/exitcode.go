// Package exitcode provides standardized exit codes for mappack
package exitcode

// Exit codes for mappack CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3
	FileSystemError = 4
	ToolNotFound    = 9
	MissingInput    = 10
	PackError       = 11
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case ToolNotFound:
		return "Tool not found"
	case MissingInput:
		return "Missing input map"
	case PackError:
		return "Packaging failed"
	default:
		return "Unknown error"
	}
}
