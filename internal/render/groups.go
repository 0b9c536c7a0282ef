package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"
)

// GroupRow is one eligible group in `groupsync get groups` output.
type GroupRow struct {
	Name   string `json:"name"`
	Query  string `json:"query"`
	Filter string `json:"filter,omitempty"`
	Scope  string `json:"scope,omitempty"`
}

// Groups writes the eligible-group listing in the requested format.
func Groups(w io.Writer, format OutputFormat, rows []GroupRow) error {
	switch format {
	case OutputFormatTable:
		return groupsAsTable(w, rows)
	case OutputFormatJSON:
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling groups to JSON failed: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case OutputFormatNDJSON:
		encoder := json.NewEncoder(w)
		for _, row := range rows {
			if err := encoder.Encode(row); err != nil {
				return fmt.Errorf("encoding group row failed: %w", err)
			}
		}
		return nil
	case OutputFormatYAML:
		data, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("marshalling groups to YAML failed: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}

func groupsAsTable(w io.Writer, rows []GroupRow) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Group", "Query", "Filter", "Scope"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.Name, row.Query, row.Filter, row.Scope})
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return nil
}
