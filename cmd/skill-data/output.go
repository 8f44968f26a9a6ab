package main

import (
	"encoding/json"
	"fmt"
	"io"
)

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitDB, fmt.Errorf("json encode: %w", err))
	}
	return nil
}

type runSummary struct {
	Status string `json:"status"`
	Source string `json:"source"`
	File   string `json:"file"`
	Apply  bool   `json:"apply"`
	Driver string `json:"driver"`
	Result any    `json:"result"`
}
