package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode is a stable identifier for a failure reported by the CLI
type ErrorCode string

const (
	// InvalidInput indicates missing or conflicting arguments
	InvalidInput ErrorCode = "INVALID_INPUT"
	// ParseFailed indicates the command line could not be parsed
	ParseFailed ErrorCode = "PARSE_FAILED"
	// DescriptorInvalid indicates an error descriptor file could not be read
	DescriptorInvalid ErrorCode = "DESCRIPTOR_INVALID"
	// ConfigInvalid indicates the configuration could not be loaded or saved
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ScanFailed indicates a batch scan could not complete
	ScanFailed ErrorCode = "SCAN_FAILED"
	// Cancelled indicates the operation was interrupted
	Cancelled ErrorCode = "CANCELLED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// AqError is an error with a stable code and suggested fixes
type AqError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates an AqError with the default fixes for code
func New(code ErrorCode, message string, cause error) *AqError {
	return &AqError{
		Code:           code,
		Message:        message,
		SuggestedFixes: GetSuggestedFixes(code),
		cause:          cause,
	}
}

// Errorf is New with a formatted message and no cause
func Errorf(code ErrorCode, format string, args ...interface{}) *AqError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

func (e *AqError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AqError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *AqError) WithDetails(details interface{}) *AqError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first AqError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var aqErr *AqError
	if stderrors.As(err, &aqErr) {
		return aqErr.Code
	}
	return InternalError
}

// ExitCode maps an error to a process exit status: 2 for usage and input
// problems, 130 for cancellation and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case InvalidInput, ConfigInvalid, DescriptorInvalid:
		return 2
	case Cancelled:
		return 130
	default:
		return 1
	}
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ParseFailed: {
		{
			Type:        OpenDocs,
			Description: "Check the command line syntax",
			URL:         "https://learn.microsoft.com/en-us/powershell/module/microsoft.powershell.core/about/about_parsing",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "mgaq config init --force",
			Description: "Rewrite the configuration with defaults",
		},
	},
	DescriptorInvalid: {
		{
			Type:        RunCommand,
			Command:     "mgaq classify --help",
			Description: "See the expected descriptor fields",
		},
	},
	InvalidInput: {
		{
			Type:        RunCommand,
			Command:     "mgaq help",
			Description: "Show usage",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
