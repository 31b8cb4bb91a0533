package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var exportedAt = time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC)

func sampleTable() *Table {
	t := &Table{Name: "utilisateurs", Columns: []string{"id", "nom", "actif", "note"}}
	t.Add(1, "Diallo; Awa", true, nil)
	t.Add(2, "Traoré", false, "ligne\n2")
	return t
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("excel")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestEncode_CSV(t *testing.T) {
	file, err := Encode(sampleTable(), FormatCSV, exportedAt)
	require.NoError(t, err)

	assert.Equal(t, "utilisateurs_2025-03-01_140509.csv", file.Filename)
	assert.True(t, bytes.HasPrefix(file.Content, utf8BOM))
	body := string(file.Content[len(utf8BOM):])
	assert.Contains(t, body, "id;nom;actif;note\n")
	// поле с разделителем берётся в кавычки
	assert.Contains(t, body, `1;"Diallo; Awa";Oui;`)
	assert.Contains(t, body, "2;Traoré;Non;\"ligne\n2\"")
}

func TestEncode_JSON(t *testing.T) {
	file, err := Encode(sampleTable(), FormatJSON, exportedAt)
	require.NoError(t, err)

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(file.Content, &out))
	require.Len(t, out, 2)
	assert.Equal(t, "Traoré", out[1]["nom"])
	assert.Contains(t, string(file.Content), "Traoré")
}

func TestEncode_XLSX(t *testing.T) {
	file, err := Encode(sampleTable(), FormatXLSX, exportedAt)
	require.NoError(t, err)
	assert.Equal(t, "utilisateurs_2025-03-01_140509.xlsx", file.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("utilisateurs")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "nom", "actif", "note"}, rows[0])
	assert.Equal(t, "Diallo; Awa", rows[1][1])
}
