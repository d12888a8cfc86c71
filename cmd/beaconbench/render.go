package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
)

// resultTable renders with either go-pretty or tablewriter, picked by name —
// the teacher's two benchmark mains each commit to one renderer; beaconbench
// keeps both wired, selectable per run, the way a teacher evaluating table
// libraries side by side would.
type resultTable struct {
	title   string
	headers []string
	rows    [][]string
}

func newResultTable(title string, headers ...string) *resultTable {
	return &resultTable{title: title, headers: headers}
}

func (rt *resultTable) addRow(cells ...string) {
	rt.rows = append(rt.rows, cells)
}

func (rt *resultTable) render(renderer string) {
	switch renderer {
	case "tablewriter":
		rt.renderTablewriter()
	default:
		rt.renderGoPretty()
	}
}

func (rt *resultTable) renderGoPretty() {
	tbl := table.NewWriter()
	tbl.SetTitle(rt.title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(stringsToRow(rt.headers))
	for _, r := range rt.rows {
		tbl.AppendRow(stringsToRow(r))
	}
	tbl.Render()
}

func (rt *resultTable) renderTablewriter() {
	fmt.Println(rt.title)
	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader(rt.headers)
	for _, r := range rt.rows {
		tbl.Append(r)
	}
	tbl.Render()
}

func stringsToRow(ss []string) table.Row {
	row := make(table.Row, len(ss))
	for i, s := range ss {
		row[i] = s
	}
	return row
}
