package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"

	"groupsync.dev/cli/internal/engine"
)

// Changes writes the pass-through change records in the requested format.
// OutputFormatNone writes nothing.
func Changes(w io.Writer, format OutputFormat, changes []engine.Change) error {
	switch format {
	case OutputFormatNone:
		return nil
	case OutputFormatTable:
		return changesAsTable(w, changes)
	case OutputFormatJSON:
		data, err := json.MarshalIndent(changes, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling change records to JSON failed: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case OutputFormatNDJSON:
		encoder := json.NewEncoder(w)
		for _, change := range changes {
			if err := encoder.Encode(change); err != nil {
				return fmt.Errorf("encoding change record failed: %w", err)
			}
		}
		return nil
	case OutputFormatYAML:
		data, err := yaml.Marshal(changes)
		if err != nil {
			return fmt.Errorf("marshalling change records to YAML failed: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}

func changesAsTable(w io.Writer, changes []engine.Change) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Group", "Query", "User", "Action"})
	for _, change := range changes {
		t.AppendRow(table.Row{change.Group, change.Query, change.User, change.Action})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 2, AutoMerge: true},
	})
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return nil
}
