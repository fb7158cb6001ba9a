package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ParseJSON reads a JSON array of flat objects, for example
//
//	[
//	  {"date": "2024-06-01", "amount": 100, "status": "paid", "patient": "A. Rao"},
//	  {"Date": "2024-06-02", "payment": "75.50", "name": "B. Shah"}
//	]
//
// JSON numbers stay numbers, strings get CSV cell coercion and null is
// empty. Headers are collected in first-seen order across all objects.
func ParseJSON(data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Key order of a decoded map is lost, so a second pass with a token
	// decoder recovers the order columns first appear in.
	table := &Table{Headers: jsonKeyOrder(data)}
	for i, row := range rows {
		rec := make(RawRecord, len(row))
		for key, v := range row {
			val, err := jsonValue(v)
			if err != nil {
				return nil, fmt.Errorf("record %d field %q: %w", i+1, key, err)
			}
			rec[key] = val
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func jsonValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return EmptyValue, nil
	case json.Number:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return EmptyValue, err
		}
		return NumberValue(f, x.String()), nil
	case string:
		return CoerceCell(x), nil
	case bool:
		return StringValue(strconv.FormatBool(x)), nil
	default:
		return EmptyValue, fmt.Errorf("nested values are not supported")
	}
}

func jsonKeyOrder(data []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(data))
	seen := make(map[string]bool)
	var order []string
	depth := 0
	expectKey := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				depth++
				expectKey = depth == 2
			case '}', ']':
				depth--
				expectKey = depth == 2
			case '[':
				depth++
			}
			continue
		case string:
			if depth == 2 && expectKey {
				if !seen[t] {
					seen[t] = true
					order = append(order, t)
				}
				expectKey = false
				continue
			}
		}
		if depth == 2 {
			expectKey = true
		}
	}
	return order
}

func init() {
	RegisterParser("json", ParserFunc(ParseJSON), ".json")
}
