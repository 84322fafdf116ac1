package components

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// StringValue renders a scalar value the way controls display it.
func StringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case *model.FileReference:
		if v == nil {
			return ""
		}
		return v.URL
	case model.FileReference:
		return v.URL
	default:
		return fmt.Sprint(value)
	}
}

// StringValues flattens multi-valued input into strings. Scalars become a
// single element slice.
func StringValues(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, StringValue(item))
		}
		return out
	default:
		if s := StringValue(value); s != "" {
			return []string{s}
		}
		return nil
	}
}

// IsBlank reports whether value renders as nothing.
func IsBlank(value any) bool {
	return strings.TrimSpace(strings.Join(StringValues(value), "")) == ""
}

func fileReference(value any) model.FileReference {
	switch v := value.(type) {
	case *model.FileReference:
		if v != nil {
			return *v
		}
	case model.FileReference:
		return v
	case map[string]any:
		ref := model.FileReference{}
		ref.URL, _ = v["url"].(string)
		ref.Name, _ = v["name"].(string)
		ref.ContentType, _ = v["contentType"].(string)
		return ref
	case string:
		return model.FileReference{URL: v}
	}
	return model.FileReference{}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
