package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlattenJSON renders an arbitrary JSON value as plain display text.
// Objects become "key: value" lines in declared key order, with nested
// values as a "key:" header followed by a two-space-indented block.
// Arrays emit one line per scalar element and recurse into nested
// structures without a key prefix. A bare JSON string flattens to its
// unquoted content.
//
// A token decoder is used instead of unmarshalling because a decoded
// map would not preserve object key order.
func FlattenJSON(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("flatten payload: %w", err)
	}

	var lines []string
	if err := flattenValue(dec, tok, 0, &lines); err != nil {
		return "", fmt.Errorf("flatten payload: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

func flattenValue(dec *json.Decoder, tok json.Token, depth int, lines *[]string) error {
	delim, ok := tok.(json.Delim)
	if !ok {
		*lines = append(*lines, indentFor(depth)+scalarText(tok))
		return nil
	}

	switch delim {
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := keyTok.(string)
			valTok, err := dec.Token()
			if err != nil {
				return err
			}
			if _, nested := valTok.(json.Delim); nested {
				*lines = append(*lines, indentFor(depth)+key+":")
				if err := flattenValue(dec, valTok, depth+1, lines); err != nil {
					return err
				}
			} else {
				*lines = append(*lines, indentFor(depth)+key+": "+scalarText(valTok))
			}
		}
	case '[':
		for dec.More() {
			valTok, err := dec.Token()
			if err != nil {
				return err
			}
			if err := flattenValue(dec, valTok, depth, lines); err != nil {
				return err
			}
		}
	}

	// Consume the closing delimiter.
	_, err := dec.Token()
	return err
}

func indentFor(depth int) string {
	return strings.Repeat("  ", depth)
}

func scalarText(tok json.Token) string {
	switch v := tok.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "null"
	default:
		return fmt.Sprint(v)
	}
}
