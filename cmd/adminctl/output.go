package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	outputJSON string = "json"
	outputYAML string = "yaml"
)

func validateOutputFormat(format string) error {
	switch format {
	case outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (must be one of json, yaml)", format)
	}
}

type printer struct {
	format string
	out    io.Writer
}

// print writes value in the selected format. YAML output is derived from the JSON encoding so both
// formats use the same field names and key order.
func (p printer) print(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if p.format == outputYAML {
		var node yaml.Node
		err = yaml.Unmarshal(data, &node)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		err = enc.Encode(&node)
		if err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(json.RawMessage(data))
}
