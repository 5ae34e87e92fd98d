// SPDX-License-Identifier: Apache-2.0

package arc

// StreamFrame is one framed event of a streamed response. Frames for one
// stream carry strictly increasing fragment indexes starting at 0; the
// stream is terminated by exactly one frame with IsFinal set.
type StreamFrame struct {
	ChatID        string       `json:"chatId"`
	RequestID     string       `json:"requestId"`
	FragmentIndex int          `json:"fragmentIndex"`
	Content       string       `json:"content"`
	IsFinal       bool         `json:"isFinal"`
	Error         *ErrorObject `json:"error,omitempty"`
}
