// SPDX-License-Identifier: Apache-2.0

package arc

// Params carries the handler-specific request parameters. Parameter shapes
// are validated per method at the dispatch boundary; these accessors only
// read already-validated values.
type Params map[string]interface{}

// String returns the string value for key, or "" when absent or not a string.
func (p Params) String(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns the boolean value for key, or false when absent or not a bool.
func (p Params) Bool(key string) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return false
}

// Float returns the numeric value for key, or 0. JSON numbers decode as
// float64.
func (p Params) Float(key string) float64 {
	if v, ok := p[key].(float64); ok {
		return v
	}
	return 0
}

// StringMap returns the string-to-string mapping for key. Non-string values
// inside the object are skipped.
func (p Params) StringMap(key string) map[string]string {
	obj, ok := p[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Has reports whether key is present in the params.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// ChatID returns the optional common chatId parameter.
func (p Params) ChatID() string {
	return p.String("chatId")
}

// Stream returns the advisory stream flag, false by default. Handlers, not
// the dispatcher, decide whether to honor it.
func (p Params) Stream() bool {
	return p.Bool("stream")
}
