// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling for the ARC runtime.
// Every failure the registry, session store or dispatcher can produce
// carries one of the codes below so callers and the wire layer can tell
// them apart.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies ARC runtime errors.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "Internal"

	// CodeInvalidParams indicates the request params failed schema validation.
	CodeInvalidParams ErrorCode = "InvalidParams"

	// CodeInvalidRequest indicates a malformed or wrong-version ARC request.
	CodeInvalidRequest ErrorCode = "InvalidRequest"

	// CodeDuplicateRegistration indicates an (agent, method) pair was
	// registered twice. Registration never silently overwrites.
	CodeDuplicateRegistration ErrorCode = "DuplicateRegistration"

	// CodeMethodNotFound indicates the target agent is unknown.
	CodeMethodNotFound ErrorCode = "MethodNotFound"

	// CodeUnsupportedMethod indicates the agent exists but does not expose
	// the requested method.
	CodeUnsupportedMethod ErrorCode = "UnsupportedMethod"

	// CodeChatNotFound indicates no session exists for the chat id.
	CodeChatNotFound ErrorCode = "ChatNotFound"

	// CodeChatAlreadyActive indicates a create raced with or repeated an
	// existing ACTIVE session.
	CodeChatAlreadyActive ErrorCode = "ChatAlreadyActive"

	// CodeChatIDReused indicates a create tried to resurrect a CLOSED id.
	CodeChatIDReused ErrorCode = "ChatIdReused"

	// CodeSessionAlreadyClosed indicates a close or message hit a session
	// that is already CLOSED.
	CodeSessionAlreadyClosed ErrorCode = "SessionAlreadyClosed"

	// CodeHandlerFault wraps any failure raised from inside handler logic.
	CodeHandlerFault ErrorCode = "HandlerFault"

	// CodeTaskNotFound indicates a task record was not found in the store.
	CodeTaskNotFound ErrorCode = "TaskNotFound"
)

// ARCError is a typed error with context for observability. It implements
// the error interface and can be unwrapped with errors.As().
type ARCError struct {
	Code     ErrorCode
	Message  string
	Err      error
	Context  map[string]interface{}
	WireCode int // numeric code used in ARC error objects
}

// Error implements the error interface.
func (e *ARCError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *ARCError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *ARCError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Err     string                 `json:"error,omitempty"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Err:     errString(e.Err),
		Context: e.Context,
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// New creates a new ARCError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *ARCError {
	return &ARCError{
		Code:     code,
		Message:  msg,
		Err:      cause,
		WireCode: codeToWireCode(code),
	}
}

// Newf creates a new ARCError with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *ARCError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *ARCError) WithContext(key string, value interface{}) *ARCError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// AsARCError attempts to convert an error to an ARCError.
// Returns the error as ARCError if it is one, or wraps it as a handler
// fault otherwise so internal representations never reach the wire.
func AsARCError(err error) *ARCError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*ARCError); ok {
		return ae
	}
	return New(CodeHandlerFault, err.Error(), err)
}

// codeToWireCode maps error codes to numeric ARC protocol codes. Registry
// and dispatch codes reuse the JSON-RPC range the original protocol kept;
// session codes get their own -43xxx range.
func codeToWireCode(code ErrorCode) int {
	switch code {
	case CodeMethodNotFound:
		return -41001
	case CodeUnsupportedMethod:
		return -32601
	case CodeInvalidParams:
		return -32602
	case CodeInvalidRequest:
		return -45001
	case CodeChatNotFound:
		return -43001
	case CodeChatAlreadyActive:
		return -43002
	case CodeChatIDReused:
		return -43003
	case CodeSessionAlreadyClosed:
		return -43004
	case CodeTaskNotFound:
		return -43005
	default:
		return -32603
	}
}
