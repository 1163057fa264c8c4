package failure

// ErrorKind is the closed taxonomy of tool failure kinds.
type ErrorKind string

const (
	FileNotFound     ErrorKind = "file_not_found"
	InvalidPath      ErrorKind = "invalid_path"
	SyntaxError      ErrorKind = "syntax_error"
	NetworkError     ErrorKind = "network_error"
	CommandFailed    ErrorKind = "command_failed"
	NoMatches        ErrorKind = "no_matches"
	EditConflict     ErrorKind = "edit_conflict"
	Ambiguous        ErrorKind = "ambiguous"
	PermissionDenied ErrorKind = "permission_denied"
	Timeout          ErrorKind = "timeout"
	Unknown          ErrorKind = "unknown"
)

// ErrorInfo pairs an error kind with the message that produced it.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Transience says whether repeating the same action later may succeed on
// its own.
type Transience int

const (
	Permanent Transience = iota
	Transient
)

func (t Transience) String() string {
	if t == Transient {
		return "transient"
	}
	return "permanent"
}

// Classify reports whether an error kind is transient or permanent.
// Transient kinds may resolve themselves; everything else will fail the
// same way on a blind retry.
func Classify(kind ErrorKind) Transience {
	switch kind {
	case NetworkError, Timeout, CommandFailed:
		return Transient
	default:
		return Permanent
	}
}

// notRetryable lists the kinds for which retrying the exact same action is
// pointless. Note this is independent of Classify: FileNotFound is permanent
// AND unretryable, yet still has a concrete alternative strategy.
var notRetryable = map[ErrorKind]bool{
	InvalidPath:      true,
	SyntaxError:      true,
	PermissionDenied: true,
	FileNotFound:     true,
}

// IsRecoverable reports whether blindly retrying the exact same action is
// safe for this error kind.
func IsRecoverable(kind ErrorKind) bool {
	return !notRetryable[kind]
}

// suggestions carries the fixed human-readable hint for each kind.
var suggestions = map[ErrorKind]string{
	FileNotFound:     "The file does not exist. Use Glob to discover the correct path, or ListDirectory to inspect the directory.",
	InvalidPath:      "The path is malformed. Check for typos or illegal characters before retrying.",
	SyntaxError:      "The generated code or pattern has a syntax error. Review and correct it before retrying.",
	NetworkError:     "A network request failed. Wait briefly and retry.",
	CommandFailed:    "The command exited with a failure. Inspect its output before retrying.",
	NoMatches:        "The search found nothing. Broaden the pattern or search a wider scope.",
	EditConflict:     "The file changed since it was read. Re-read the file and re-apply the edit.",
	Ambiguous:        "The request matched multiple targets. Ask the user which one is intended.",
	PermissionDenied: "Access was denied. The operation needs different permissions; do not retry as-is.",
	Timeout:          "The operation timed out. Retry with a longer timeout or a smaller scope.",
	Unknown:          "An unclassified error occurred. Inspect the message before deciding how to proceed.",
}

// HelpfulMessage returns the fixed suggestion for an error kind.
func HelpfulMessage(info ErrorInfo) string {
	if s, ok := suggestions[info.Kind]; ok {
		return s
	}
	return suggestions[Unknown]
}
