package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// Query runs a jq expression over a rendered JSON document and returns the
// results, one JSON value per line. indent works as in WithJSONIndent.
//
// Query operates on the rendered document only; it does not touch the
// report tree.
func Query(doc, expr string, indent int) (string, error) {
	parsed, err := gojq.Parse(expr)
	if err != nil {
		return "", fmt.Errorf("invalid query %q: %w", expr, err)
	}

	code, err := gojq.Compile(parsed)
	if err != nil {
		return "", fmt.Errorf("invalid query %q: %w", expr, err)
	}

	var input any
	if err := json.Unmarshal([]byte(doc), &input); err != nil {
		return "", fmt.Errorf("query input is not JSON: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}

	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if qerr, isErr := v.(error); isErr {
			return "", fmt.Errorf("query error: %w", qerr)
		}
		if err := enc.Encode(v); err != nil {
			return "", err
		}
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
