package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable lays out rows under headers. Columns holding only counts or
// durations are right-aligned. wrapAt caps column width; 0 leaves cells whole.
func renderTable(headers []string, rows [][]string, wrapAt int) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for col := range headers {
		align := text.AlignLeft
		if quantityColumn(rows, col) {
			align = text.AlignRight
		}
		configs[col] = table.ColumnConfig{
			Number:      col + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    wrapAt,
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// toRow pads or clips cells to width.
func toRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	return row
}

func quantityColumn(rows [][]string, col int) bool {
	seen := false
	for _, row := range rows {
		if col >= len(row) || row[col] == "" || row[col] == "-" {
			continue
		}
		if !isQuantity(row[col]) {
			return false
		}
		seen = true
	}
	return seen
}

func isQuantity(cell string) bool {
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return true
	}
	_, err := time.ParseDuration(cell)
	return err == nil
}
