package mcp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// JSON numbers arrive as float64; clients occasionally send ids as strings.

func requireID(request mcp.CallToolRequest, key string) (int64, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("required argument %q not found", key)
	}
	id, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", key, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("argument %q must be a positive id", key)
	}
	return id, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func requireNumber(request mcp.CallToolRequest, key string) (float64, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("required argument %q not found", key)
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", key, err)
	}
	return f, nil
}

func optionalNumber(request mcp.CallToolRequest, key string, def float64) (float64, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", key, err)
	}
	return f, nil
}

func optionalString(request mcp.CallToolRequest, key string) string {
	if s, ok := request.GetArguments()[key].(string); ok {
		return s
	}
	return ""
}

// stringMap reads a JSON object argument. Non-string values are formatted
// with their default representation.
func stringMap(request mcp.CallToolRequest, key string) (map[string]string, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object", key)
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		switch t := val.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out, nil
}

func stringSlice(request mcp.CallToolRequest, key string) ([]string, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("argument %q must contain only strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %q must be an array", key)
	}
}
