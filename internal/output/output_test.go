package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "Friday", "Status")
	table.AddRow("2025-01-03", "ok")
	table.AddRow("2025-01-10", "failed")

	if err := table.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}

	out := strings.ToUpper(buf.String())
	for _, want := range []string{"FRIDAY", "2025-01-03", "2025-01-10", "FAILED"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrinter_Plain(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinterTo(&out, &errOut, false)

	p.Success("fetched %d weeks", 4)
	p.Warning("week %s failed", "2025-01-10")
	p.Error("save failed")

	if got := out.String(); got != "[OK] fetched 4 weeks\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := errOut.String(); got != "[WARN] week 2025-01-10 failed\n[ERROR] save failed\n" {
		t.Errorf("stderr = %q", got)
	}
	if p.Status(true) != "ok" || p.Status(false) != "failed" {
		t.Errorf("Status() = %q/%q", p.Status(true), p.Status(false))
	}
}
