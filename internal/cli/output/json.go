package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/redikv/pkg/resp"
)

// JSONFormatter formats replies as JSON.
type JSONFormatter struct{}

// Format writes v as one line of JSON.
func (f *JSONFormatter) Format(w io.Writer, v resp.Value) error {
	return json.NewEncoder(w).Encode(jsonValue(v))
}

type jsonError struct {
	Error string `json:"error"`
}

// jsonValue maps a reply onto JSON: strings and bulk strings become strings,
// integers numbers, nulls null and errors {"error": "..."}.
func jsonValue(v resp.Value) any {
	switch v.Kind {
	case resp.KindSimpleString, resp.KindBulkString:
		return string(v.Str)
	case resp.KindError:
		return jsonError{Error: string(v.Str)}
	case resp.KindInteger:
		return v.Int
	case resp.KindArray:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = jsonValue(e)
		}
		return out
	default:
		return nil
	}
}
