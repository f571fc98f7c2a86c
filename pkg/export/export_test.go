package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Email"},
		Rows:    []map[string]string{{"Name": "Doe, John", "Email": "john@example.com"}},
	}
	out, err := NewCSVExporter().Render(data, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "Name,Email\n\"Doe, John\",john@example.com\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{}, "")
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := &PDFExporter{Widths: map[string]float64{"Age": 15}}
	data := Dataset{Headers: []string{"Name", "Age"}}
	for i := 0; i < 60; i++ {
		data.Rows = append(data.Rows, map[string]string{"Name": "Student", "Age": "20"})
	}
	out, err := exporter.Render(data, "Students")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, []float64{262, 15}, exporter.columnWidths(data.Headers, 277))
}
