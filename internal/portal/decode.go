package portal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nhle/jobportal/internal/logger"
)

// ErrUnknownEnvelope is returned for an object payload that carries none
// of the known list fields.
var ErrUnknownEnvelope = errors.New("no list field in response")

// listKeys are the envelope fields that may wrap a list payload, in the
// order they are tried.
var listKeys = []string{"data", "content", "items", "results", "list"}

// countKeys are the envelope fields that may carry a total.
var countKeys = []string{"count", "total", "totalElements", "totalCount", "data"}

// maxEnvelopeDepth bounds how deep nested envelopes are unwrapped.
const maxEnvelopeDepth = 3

// decodeList accepts a bare array or an object wrapping one under a
// known key, possibly nested ({"data":{"content":[...]}}).
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	return decodeListDepth[T](raw, 0)
}

func decodeListDepth[T any](raw json.RawMessage, depth int) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding list: %w", err)
		}
		return items, nil

	case '{':
		if depth >= maxEnvelopeDepth {
			break
		}
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decoding envelope: %w", err)
		}
		for _, k := range listKeys {
			if inner, ok := env[k]; ok {
				return decodeListDepth[T](inner, depth+1)
			}
		}
		if len(env) == 0 {
			return nil, nil
		}
		present := make([]string, 0, len(env))
		for k := range env {
			present = append(present, k)
		}
		sort.Strings(present)
		logger.Debug().Strs("keys", present).Msg("list envelope without a known list field")
		return nil, fmt.Errorf("%w (keys: %s)", ErrUnknownEnvelope, strings.Join(present, ", "))
	}

	return nil, fmt.Errorf("unexpected list payload %.40s", trimmed)
}

// decodeObject unwraps {"data": {...}} when present, otherwise decodes
// the object as is.
func decodeObject[T any](raw json.RawMessage) (T, error) {
	var out T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}

	var env map[string]json.RawMessage
	if json.Unmarshal(trimmed, &env) == nil {
		if inner, ok := env["data"]; ok && len(env) <= 3 {
			if t := bytes.TrimSpace(inner); len(t) > 0 && t[0] == '{' {
				trimmed = t
			}
		}
	}

	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, fmt.Errorf("decoding object: %w", err)
	}
	return out, nil
}

// decodeCount accepts a bare number, a numeric string, or an object
// carrying the number under a known key.
func decodeCount(raw json.RawMessage) (int, error) {
	return decodeCountDepth(raw, 0)
}

func decodeCountDepth(raw json.RawMessage, depth int) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, fmt.Errorf("decoding count: %w", err)
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("decoding count %q: %w", s, err)
		}
		return n, nil

	case '{':
		if depth >= maxEnvelopeDepth {
			break
		}
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return 0, fmt.Errorf("decoding count envelope: %w", err)
		}
		for _, k := range countKeys {
			if inner, ok := env[k]; ok {
				return decodeCountDepth(inner, depth+1)
			}
		}
		return 0, fmt.Errorf("count envelope has no known field")

	case '[':
		// Some endpoints return the full list instead of a count.
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return 0, fmt.Errorf("decoding count list: %w", err)
		}
		return len(items), nil

	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return 0, fmt.Errorf("decoding count: %w", err)
		}
		return int(f), nil
	}

	return 0, fmt.Errorf("count envelope nested too deeply")
}
