package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(raw string) (Format, error) {
	switch f := Format(raw); f {
	case FormatXLSX, FormatCSV, FormatJSON:
		return f, nil
	case "excel":
		return FormatXLSX, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("format non supporté: %s", raw)
}

// Table плоская выгрузка: заголовки и строки одинаковой длины.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]interface{}
}

func (t *Table) Add(values ...interface{}) {
	t.Rows = append(t.Rows, values)
}

// Records: строки как объекты для JSON.
func (t *Table) Records() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

type File struct {
	Filename string
	Mime     string
	Content  []byte
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encode сериализует таблицу; имя файла: <name>_<дата-время>.<ext>.
func Encode(t *Table, format Format, at time.Time) (*File, error) {
	base := fmt.Sprintf("%s_%s", t.Name, at.Format("2006-01-02_150405"))
	switch format {
	case FormatCSV:
		content, err := encodeCSV(t)
		if err != nil {
			return nil, err
		}
		return &File{Filename: base + ".csv", Mime: "text/csv; charset=UTF-8", Content: content}, nil
	case FormatJSON:
		content, err := EncodeJSON(t.Records())
		if err != nil {
			return nil, err
		}
		return &File{Filename: base + ".json", Mime: "application/json", Content: content}, nil
	case FormatXLSX:
		content, err := encodeXLSX(t)
		if err != nil {
			return nil, err
		}
		return &File{
			Filename: base + ".xlsx",
			Mime:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:  content,
		}, nil
	}
	return nil, fmt.Errorf("format non supporté: %s", format)
}

// EncodeJSON: читаемый JSON без экранирования юникода и HTML.
func EncodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("ошибка сериализации JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeCSV: разделитель ";" и BOM, чтобы Excel сразу открывал UTF-8.
func encodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = cellString(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("ошибка записи CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case bool:
		if x {
			return "Oui"
		}
		return "Non"
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format("2006-01-02 15:04:05")
	case []interface{}, map[string]interface{}, []map[string]interface{}:
		raw, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(raw)
	}
	return fmt.Sprint(v)
}

func encodeXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Name
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	if len(t.Columns) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, err
		}
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return nil, err
		}
	}

	for i, row := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellString(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка записи XLSX: %w", err)
	}
	return buf.Bytes(), nil
}
