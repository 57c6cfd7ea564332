package activity

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidParams = errors.New("invalid action params")

type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return ErrInvalidParams.Error() + ": " + e.Field + ": " + e.Reason
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidParams
}

func paramError(field, reason string) *ParamError {
	return &ParamError{Field: field, Reason: reason}
}

// Params is the opaque, type-specific argument object of an action.
type Params map[string]any

func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Int reads an integral value. JSON numbers arrive as float64 and must have no fraction.
func (p Params) Int(key string) (int64, bool) {
	switch v := p[key].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
