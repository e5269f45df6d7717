package main

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

func validOutput(format string) bool {
	return format == "json" || format == "yaml"
}

func printResult(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
