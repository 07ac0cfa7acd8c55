package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// readJSON accepts three layouts: an array of records, a split object
// {"columns": [...], "data": [[...]]}, and a column object {"col": [...]}.
// Column order follows first appearance in the document.
func readJSON(data []byte) ([]string, [][]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("empty document")
	}
	switch data[0] {
	case '[':
		return readRecords(data)
	case '{':
		return readObject(data)
	}
	return nil, nil, fmt.Errorf("expected a JSON array or object")
}

func readRecords(data []byte) ([]string, [][]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil, err
	}
	var header []string
	index := make(map[string]int)
	records := make([]map[string]string, 0, len(items))
	for i, item := range items {
		keys, values, err := orderedObject(item)
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i, err)
		}
		rec := make(map[string]string, len(keys))
		for j, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(header)
				header = append(header, k)
			}
			rec[k] = cellString(values[j])
		}
		records = append(records, rec)
	}
	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(header))
		for k, v := range rec {
			row[index[k]] = v
		}
		rows[i] = row
	}
	return header, rows, nil
}

func readObject(data []byte) ([]string, [][]string, error) {
	keys, values, err := orderedObject(data)
	if err != nil {
		return nil, nil, err
	}
	var split struct {
		Columns []string            `json:"columns"`
		Data    [][]json.RawMessage `json:"data"`
	}
	if containsKey(keys, "columns") && containsKey(keys, "data") {
		if err := json.Unmarshal(data, &split); err != nil {
			return nil, nil, fmt.Errorf("split layout: %w", err)
		}
		rows := make([][]string, len(split.Data))
		for i, raw := range split.Data {
			row := make([]string, len(raw))
			for j, v := range raw {
				row[j] = cellString(v)
			}
			rows[i] = row
		}
		return split.Columns, rows, nil
	}

	var rows [][]string
	for j, raw := range values {
		var cells []json.RawMessage
		if err := json.Unmarshal(raw, &cells); err != nil {
			return nil, nil, fmt.Errorf("column %q: expected an array of values", keys[j])
		}
		for len(rows) < len(cells) {
			rows = append(rows, make([]string, len(keys)))
		}
		for i, v := range cells {
			rows[i][j] = cellString(v)
		}
	}
	return keys, rows, nil
}

// orderedObject decodes a JSON object keeping its key order.
func orderedObject(data []byte) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected an object")
	}
	var (
		keys   []string
		values []json.RawMessage
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("key %q: %w", key, err)
		}
		keys = append(keys, key)
		values = append(values, v)
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return keys, values, nil
}

func cellString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return strconv.FormatBool(b)
		}
	}
	return string(raw)
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
