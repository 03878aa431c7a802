package main

import (
	"strings"
	"testing"

	"alert-trader/internal/execution"
)

func TestFormatFloatStripsTrailingZeros(t *testing.T) {
	cases := []struct {
		value     float64
		precision int
		want      string
	}{
		{120, 4, "120"},
		{100.25, 4, "100.25"},
		{89.55, 3, "89.55"},
		{13.5, 3, "13.5"},
		{0.1235, 4, "0.1235"},
	}
	for _, tc := range cases {
		if got := formatFloat(tc.value, tc.precision); got != tc.want {
			t.Fatalf("formatFloat(%v,%d) = %q, want %q", tc.value, tc.precision, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{40, "+40%"},
		{-10, "-10%"},
		{12.34, "+12.3%"},
		{-0.05, "-0.1%"},
	}
	for _, tc := range cases {
		if got := formatPercent(tc.value); got != tc.want {
			t.Fatalf("formatPercent(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestFormatRatioCommaSeparator(t *testing.T) {
	if got := formatRatio(2); got != "2,0" {
		t.Fatalf("formatRatio(2) = %q, want 2,0", got)
	}
	if got := formatRatio(1.5); got != "1,5" {
		t.Fatalf("formatRatio(1.5) = %q, want 1,5", got)
	}
}

func TestFinancialSummaryLong(t *testing.T) {
	plan := execution.Plan{
		Product:   "NEO-PERP-INTX",
		Direction: execution.DirectionLong,
		Size:      "1",
	}
	result := execution.Result{
		EntryFillAvg: 100,
		TakeProfit:   120,
		StopTrigger:  90,
	}

	summary := financialSummary(plan, result, 2, "LONG")

	if !strings.Contains(summary, "Product: NEO-PERP-INTX | Size: 1 | Side: LONG | Risk-Profit Ratio: 2,0") {
		t.Fatalf("unexpected header:\n%s", summary)
	}
	lines := strings.Split(summary, "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s", len(lines), summary)
	}
	if !strings.Contains(lines[2], "Take Profit") || !strings.Contains(lines[2], "Stop Loss") {
		t.Fatalf("unexpected label row: %q", lines[2])
	}
	if idxTP := strings.Index(lines[2], "Take Profit"); idxTP > strings.Index(lines[2], "Stop Loss") {
		t.Fatal("long should print take profit left, stop loss right")
	}
	if !strings.HasPrefix(lines[3], "Price") || !strings.Contains(lines[3], "120") {
		t.Fatalf("unexpected price row: %q", lines[3])
	}
	if !strings.Contains(lines[4], "+40%") || !strings.Contains(lines[4], "-10%") {
		t.Fatalf("unexpected percent row: %q", lines[4])
	}
}

func TestFinancialSummaryShort(t *testing.T) {
	plan := execution.Plan{
		Product:   "NEO-PERP-INTX",
		Direction: execution.DirectionShort,
		Size:      "2",
	}
	result := execution.Result{
		EntryFillAvg: 100,
		TakeProfit:   80,
		StopTrigger:  110,
	}

	summary := financialSummary(plan, result, 2, "SHORT")

	lines := strings.Split(summary, "\n")
	if idxSL := strings.Index(lines[2], "Stop Loss"); idxSL > strings.Index(lines[2], "Take Profit") {
		t.Fatal("short should print stop loss left, take profit right")
	}
	if !strings.Contains(lines[4], "+10%") || !strings.Contains(lines[4], "-20%") {
		t.Fatalf("unexpected percent row: %q", lines[4])
	}
}

func TestParseSide(t *testing.T) {
	if d, err := parseSide("long"); err != nil || d != execution.DirectionLong {
		t.Fatalf("parseSide(long)=%v,%v", d, err)
	}
	if d, err := parseSide(" SHORT "); err != nil || d != execution.DirectionShort {
		t.Fatalf("parseSide(SHORT)=%v,%v", d, err)
	}
	if _, err := parseSide("sideways"); err == nil {
		t.Fatal("expected side parse to fail")
	}
}
