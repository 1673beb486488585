package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/reallyasi9/fantasy-luck/internal/ff"
)

func TestLuckTable(t *testing.T) {
	reports := []ff.LuckReport{
		ff.Luck("A team with a really long name", 3, ff.Distribution{.25, .5, .25, 0}),
		ff.Luck("B", 0, ff.Distribution{0, 1}),
	}
	out := luckTable(reports)
	t.Log("\n" + out)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[1], "lucky") {
		t.Errorf("expected lucky verdict, got %s", lines[1])
	}
	if !strings.HasSuffix(lines[2], "unlucky") {
		t.Errorf("expected unlucky verdict, got %s", lines[2])
	}
	if strings.Contains(out, "really long name") {
		t.Errorf("expected team names truncated, got %s", lines[1])
	}
}

func TestMarginTable(t *testing.T) {
	out := marginTable([]ff.Margin{{Team: "A", AvgMarginWin: 12.5, AvgMarginLoss: -3, HeadToHeadWins: 4, HeadToHeadLosses: 10}})
	if !strings.Contains(out, "12.50") || !strings.Contains(out, "4-10") {
		t.Errorf("unexpected table %s", out)
	}
}

func TestTables_MultibyteNames(t *testing.T) {
	name := "Señor Touchdown ünd Friends"
	out := luckTable([]ff.LuckReport{ff.Luck(name, 1, ff.Distribution{0, 1})})
	if !utf8.ValidString(out) {
		t.Errorf("luck table is not valid UTF-8: %q", out)
	}
	if !strings.Contains(out, "Señor Touchdown ünd Frie") {
		t.Errorf("expected name cut at 24 characters, got %s", out)
	}

	out = marginTable([]ff.Margin{{Team: name}})
	if !utf8.ValidString(out) {
		t.Errorf("margin table is not valid UTF-8: %q", out)
	}
}
