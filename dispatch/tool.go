// Package dispatch implements the tool dispatch pipeline: a registry of
// named tools and an executor that validates parameters, runs tools under a
// timeout, and converts every failure into a structured result.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ErrorCode is the closed set of machine codes for dispatch-level errors.
// Tool-domain error kinds live in the failure package; these four cover the
// pipeline itself.
type ErrorCode string

const (
	CodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeTimeout      ErrorCode = "TIMEOUT"
	CodeExecution    ErrorCode = "EXECUTION_ERROR"
)

// ResultError describes a failed dispatch.
type ResultError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// Metadata carries measurements taken during a dispatch.
type Metadata struct {
	ExecutionTimeMs int64    `json:"execution_time_ms"`
	BytesRead       int64    `json:"bytes_read,omitempty"`
	BytesWritten    int64    `json:"bytes_written,omitempty"`
	FilesAccessed   []string `json:"files_accessed,omitempty"`
}

// Result is the outcome of a single dispatch. Produced fresh per call and
// never mutated after return.
type Result struct {
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ResultError `json:"error,omitempty"`
	Metadata *Metadata    `json:"metadata,omitempty"`
}

// Capabilities are declarative flags describing what a tool may do.
type Capabilities struct {
	WritesFiles            bool `json:"writes_files"`
	ExecutesCommands       bool `json:"executes_commands"`
	RequiresExternalEngine bool `json:"requires_external_engine"`
	AccessesNetwork        bool `json:"accesses_network"`
	Idempotent             bool `json:"idempotent"`
	Retryable              bool `json:"retryable"`
}

// Tool is a registerable tool definition. Params holds a zero value of the
// tool's typed parameter struct; the executor decodes incoming arguments
// into a fresh copy and validates it before Execute runs.
type Tool struct {
	Name         string
	Description  string
	Version      string
	Params       any
	Capabilities Capabilities

	// Execute runs the tool. params is a pointer to the decoded typed
	// parameter struct (or json.RawMessage when Params is nil). A returned
	// error becomes an EXECUTION_ERROR result; it never propagates.
	Execute func(ctx context.Context, params any, tc *ToolContext) (any, error)

	// Validate optionally adds tool-specific checks beyond struct tags.
	// Returned strings become the VALIDATION_ERROR details list.
	Validate func(params any) []string

	// Optional lifecycle hooks.
	Initialize func(tc *ToolContext) error
	Shutdown   func() error

	// DryRun optionally previews the tool's effect without side effects.
	DryRun func(ctx context.Context, params any, tc *ToolContext) (any, error)
}

// Declaration is the per-tool entry presented to the external language
// model. It is independent of internal capability flags.
type Declaration struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// declaration builds the LLM-facing view of the tool, generating the
// parameter schema from the typed params struct.
func (t *Tool) declaration() Declaration {
	d := Declaration{Name: t.Name, Description: t.Description}
	if t.Params != nil {
		reflector := jsonschema.Reflector{DoNotReference: true, Anonymous: true}
		d.Parameters = reflector.Reflect(t.Params)
	}
	return d
}

// decodeParams unmarshals raw arguments into a fresh typed params value, or
// passes the raw message through for schema-less tools.
func (t *Tool) decodeParams(raw json.RawMessage) (any, error) {
	if t.Params == nil {
		return raw, nil
	}
	decoded, err := newParamsValue(t.Params)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, decoded); err != nil {
			return nil, err
		}
	}
	return decoded, nil
}
