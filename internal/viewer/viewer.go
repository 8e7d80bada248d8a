// Package viewer turns DataResponses into something a person can read.
package viewer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/i474232898/temperature-monitor/internal/channel"
	"github.com/i474232898/temperature-monitor/internal/history"
)

// ErrNoData is reported when the authority has no data file.
var ErrNoData = errors.New("no temperature data")

// Renderer displays a decoded index or an explicit no-data state.
type Renderer interface {
	Render(ix *history.Index)
	RenderNoData(reason error)
}

// Handle decodes resp and hands the result to r. Failed, empty and malformed
// responses all end in RenderNoData; the returned error says why.
func Handle(resp channel.DataResponse, r Renderer) error {
	if !resp.Success || strings.TrimSpace(resp.Document) == "" {
		r.RenderNoData(ErrNoData)
		return ErrNoData
	}
	if history.IsBlank([]byte(resp.Document)) {
		r.Render(history.NewIndex())
		return nil
	}
	ix, err := history.Decode([]byte(resp.Document))
	if err != nil {
		r.RenderNoData(err)
		return err
	}
	r.Render(ix)
	return nil
}

// TextRenderer writes a year/month/day table. Years are listed newest first,
// months and days in calendar order below each year.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a renderer writing to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func celsius(v float64) string { return fmt.Sprintf("%.1f°C", v) }

// Render implements Renderer.
func (t *TextRenderer) Render(ix *history.Index) {
	if ix.IsEmpty() {
		fmt.Fprintln(t.w, "No temperature records yet.")
		return
	}

	table := tablewriter.NewWriter(t.w)
	table.SetHeader([]string{"Date", "Min", "Max"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	years := ix.Years()
	for i := len(years) - 1; i >= 0; i-- {
		y := years[i]
		e, _ := ix.Year(y)
		table.Append([]string{fmt.Sprintf("Year %d", y), celsius(e.Min), celsius(e.Max)})
		for _, m := range ix.Months(y) {
			e, _ := ix.Month(y, m)
			table.Append([]string{fmt.Sprintf("  %d-%s", y, history.MonthKey(m)), celsius(e.Min), celsius(e.Max)})
			for _, d := range ix.Days(y, m) {
				date := history.Date{Year: y, Month: m, Day: d}
				e, _ := ix.Day(date)
				table.Append([]string{"    " + date.String(), celsius(e.Min), celsius(e.Max)})
			}
		}
	}
	table.Render()
}

// RenderNoData implements Renderer.
func (t *TextRenderer) RenderNoData(reason error) {
	if reason == nil || errors.Is(reason, ErrNoData) {
		fmt.Fprintln(t.w, "No temperature data available.")
		return
	}
	fmt.Fprintf(t.w, "No temperature data available (%v).\n", reason)
}
