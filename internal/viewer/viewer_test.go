package viewer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/i474232898/temperature-monitor/internal/channel"
	"github.com/i474232898/temperature-monitor/internal/history"
)

type spy struct {
	rendered *history.Index
	noData   error
	calls    int
}

func (s *spy) Render(ix *history.Index) { s.rendered = ix; s.calls++ }
func (s *spy) RenderNoData(err error)   { s.noData = err; s.calls++ }

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		resp       channel.DataResponse
		wantRender bool
		wantErr    error
	}{
		{"failure", channel.DataResponse{Success: false}, false, ErrNoData},
		{"empty document", channel.DataResponse{Success: true, Document: ""}, false, ErrNoData},
		{"empty object", channel.DataResponse{Success: true, Document: "{}"}, true, nil},
		{"malformed", channel.DataResponse{Success: true, Document: `{"1":"x"}`}, false, history.ErrMalformedDocument},
		{"valid", channel.DataResponse{Success: true, Document: `{"1":{"months":{"01":{"days":{"1":{"min":1,"max":2}}}}}}`}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &spy{}
			err := Handle(tt.resp, s)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if s.calls != 1 {
				t.Fatalf("renderer called %d times", s.calls)
			}
			if tt.wantRender != (s.rendered != nil) {
				t.Errorf("rendered=%v, want %v", s.rendered != nil, tt.wantRender)
			}
		})
	}
}

func TestTextRenderer_Order(t *testing.T) {
	ix := history.NewIndex()
	for _, s := range []struct {
		d history.Date
		v float64
	}{
		{history.Date{Year: 1, Month: 2, Day: 5}, 3},
		{history.Date{Year: 1, Month: 1, Day: 9}, -1.25},
		{history.Date{Year: 2, Month: 1, Day: 1}, 12},
		{history.Date{Year: 1, Month: 1, Day: 2}, 4},
	} {
		if err := ix.Record(s.d, s.v); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	NewTextRenderer(&buf).Render(ix)
	out := buf.String()

	order := []string{"Year 2", "2-01-01", "Year 1", "1-01", "1-01-02", "1-01-09", "1-02", "1-02-05"}
	pos := -1
	for _, want := range order {
		i := strings.Index(out[pos+1:], want)
		if i < 0 {
			t.Fatalf("%q missing or out of order in:\n%s", want, out)
		}
		pos += i + 1
	}
	if !strings.Contains(out, "-1.2°C") && !strings.Contains(out, "-1.3°C") {
		t.Errorf("expected one-decimal celsius formatting in:\n%s", out)
	}
}

func TestTextRenderer_NoData(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf)
	r.RenderNoData(ErrNoData)
	r.Render(history.NewIndex())
	out := buf.String()
	if !strings.Contains(out, "No temperature data available.") || !strings.Contains(out, "No temperature records yet.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
