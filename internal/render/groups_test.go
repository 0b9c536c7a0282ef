package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRows = []GroupRow{
	{Name: "role-department-sales", Query: "(department=sales)", Filter: "office == 'Berlin'"},
	{Name: "role-support", Query: "(department=support)", Scope: "OU=Support,DC=example,DC=com"},
}

func TestGroupsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Groups(&buf, OutputFormatTable, testRows))
	assert.Contains(t, buf.String(), "role-department-sales")
	assert.Contains(t, buf.String(), "(department=support)")
}

func TestGroupsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Groups(&buf, OutputFormatJSON, testRows))

	var decoded []GroupRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testRows, decoded)
}

func TestGroupsRejectsNone(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Groups(&buf, OutputFormatNone, testRows))
}
