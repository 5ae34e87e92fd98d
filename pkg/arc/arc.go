// SPDX-License-Identifier: Apache-2.0

// Package arc defines the ARC protocol wire types: request and response
// envelopes, task and chat payloads, and stream frames. All types are plain
// JSON-serializable structs; the protocol has no binary encoding.
package arc

import "encoding/json"

// Version is the ARC protocol version this runtime speaks.
const Version = "1.0"

// Method names of the fixed ARC vocabulary.
const (
	MethodTaskCreate  = "task.create"
	MethodTaskGet     = "task.get"
	MethodChatStart   = "chat.start"
	MethodChatMessage = "chat.message"
	MethodChatEnd     = "chat.end"
)

// Request is an inbound ARC call.
type Request struct {
	ARC          string          `json:"arc"`
	ID           string          `json:"id"`
	Method       string          `json:"method"`
	RequestAgent string          `json:"requestAgent"`
	TargetAgent  string          `json:"targetAgent"`
	Params       Params          `json:"params"`
	TraceID      string          `json:"traceId,omitempty"`
	RawParams    json.RawMessage `json:"-"`
}

// Response is the synchronous ARC reply. Exactly one of Result and Error
// is set; both fields are always present on the wire, the unused one null.
type Response struct {
	ARC           string       `json:"arc"`
	ID            string       `json:"id"`
	ResponseAgent string       `json:"responseAgent"`
	TargetAgent   string       `json:"targetAgent"`
	Result        *Result      `json:"result"`
	Error         *ErrorObject `json:"error"`
	TraceID       string       `json:"traceId,omitempty"`
}

// ErrorObject is the wire representation of a failure.
type ErrorObject struct {
	Code    int         `json:"code"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
