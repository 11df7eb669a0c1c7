package output

import (
	"strings"
	"testing"
)

func TestTable_Render(t *testing.T) {
	SetNoColor(true)

	table := NewTable("REPO", "HEALTH")
	table.AddRow("alpha", "82.5")
	table.AddRow("a-much-longer-name", "40.0")

	out := table.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + separator + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "REPO") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[3], "a-much-longer-name") {
		t.Errorf("row = %q", lines[3])
	}

	// Column widths track the widest cell.
	if !strings.Contains(lines[2], "alpha              ") {
		t.Errorf("short cell not padded to column width: %q", lines[2])
	}
}

func TestSetNoColor_Reported(t *testing.T) {
	SetNoColor(true)
	if !IsNoColor() {
		t.Error("IsNoColor() = false after SetNoColor(true)")
	}
	SetNoColor(false)
	if IsNoColor() {
		t.Error("IsNoColor() = true after SetNoColor(false)")
	}
	SetNoColor(true)
}

func TestTable_ShortRowsPadded(t *testing.T) {
	SetNoColor(true)

	table := NewTable("A", "B", "C")
	table.AddRow("only-one")

	out := table.Render()
	if !strings.Contains(out, "only-one") {
		t.Errorf("missing cell in %q", out)
	}
}

func TestScoreBar_Fill(t *testing.T) {
	SetNoColor(true)

	tests := []struct {
		score      float64
		wantFilled int
	}{
		{0, 0},
		{50, 5},
		{100, 10},
		{150, 10}, // clamped
	}
	for _, tc := range tests {
		bar := ScoreBar(tc.score, 10)
		if got := strings.Count(bar, "█"); got != tc.wantFilled {
			t.Errorf("ScoreBar(%v) filled %d cells, want %d", tc.score, got, tc.wantFilled)
		}
	}
}

func TestTrendArrow(t *testing.T) {
	SetNoColor(true)

	if got := TrendArrow(2.5); !strings.Contains(got, "▲ +2.5") {
		t.Errorf("up arrow = %q", got)
	}
	if got := TrendArrow(-1.0); !strings.Contains(got, "▼ -1.0") {
		t.Errorf("down arrow = %q", got)
	}
	if got := TrendArrow(0); got != "─" {
		t.Errorf("flat = %q", got)
	}
}

func TestStatusBadge_PassesThroughUnknown(t *testing.T) {
	SetNoColor(true)

	for _, status := range []string{"active", "maintenance", "archived", "empty"} {
		if got := StatusBadge(status); got != status {
			t.Errorf("StatusBadge(%q) = %q with color disabled", status, got)
		}
	}
	if got := StatusBadge("weird"); got != "weird" {
		t.Errorf("unknown status = %q", got)
	}
}

func TestLangBar(t *testing.T) {
	SetNoColor(true)

	bar := LangBar(map[string]int{"Go": 75, "Python": 25}, 100, 20)
	if got := strings.Count(bar, "▰"); got != 20 {
		t.Errorf("expected 20 cells, got %d in %q", got, bar)
	}

	if got := LangBar(nil, 0, 20); got != "" {
		t.Errorf("empty mix should render nothing, got %q", got)
	}
}

func TestSection(t *testing.T) {
	SetNoColor(true)

	out := Section("Repositories")
	if !strings.Contains(out, "Repositories") || !strings.Contains(out, "─") {
		t.Errorf("section = %q", out)
	}
}
