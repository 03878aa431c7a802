package main

import (
	"fmt"
	"strconv"
	"strings"

	"alert-trader/internal/execution"
)

const summaryColWidth = 15

// financialSummary 生成执行后的资金概览。
// 多头按 止盈/入场/止损 排列，空头相反；价格去除末尾零，
// 百分比带符号，盈亏比用逗号作小数分隔符。
func financialSummary(plan execution.Plan, result execution.Result, rrRatio float64, sideInput string) string {
	entry := result.EntryFillAvg
	takeProfit := result.TakeProfit
	stopLoss := result.StopTrigger

	diffTP := (takeProfit - entry) / entry * 100
	diffSL := (stopLoss - entry) / entry * 100

	entryStr := formatFloat(entry, execution.PricePrecision)
	tpStr := formatFloat(takeProfit, execution.PricePrecision)
	slStr := formatFloat(stopLoss, execution.PricePrecision)

	var (
		titles [3]string
		prices [3]string
		diffs  [3]string
	)
	if plan.Direction == execution.DirectionLong {
		titles = [3]string{"Take Profit", "Entry Price", "Stop Loss"}
		prices = [3]string{tpStr, entryStr, slStr}
		diffs = [3]string{formatPercent(diffTP), "0%", formatPercent(diffSL)}
	} else {
		titles = [3]string{"Stop Loss", "Entry Price", "Take Profit"}
		prices = [3]string{slStr, entryStr, tpStr}
		diffs = [3]string{formatPercent(diffSL), "0%", formatPercent(diffTP)}
	}

	headerLine := fmt.Sprintf("%-10s%-*s%-*s%-*s", "",
		summaryColWidth, titles[0], summaryColWidth, titles[1], summaryColWidth, titles[2])
	priceRow := fmt.Sprintf("%-10s%-*s%-*s%-*s", "Price",
		summaryColWidth, prices[0], summaryColWidth, prices[1], summaryColWidth, prices[2])
	diffRow := fmt.Sprintf("%-10s%-*s%-*s%-*s", "Diff",
		summaryColWidth, diffs[0], summaryColWidth, diffs[1], summaryColWidth, diffs[2])

	return fmt.Sprintf(`===== FINANCIAL SUMMARY =====
Product: %s | Size: %s | Side: %s | Risk-Profit Ratio: %s
%s
%s
%s
%s`,
		plan.Product, plan.Size, sideInput, formatRatio(rrRatio),
		headerLine, priceRow, diffRow, strings.Repeat("=", 50))
}

// formatFloat 以给定精度格式化并去除末尾零。
func formatFloat(value float64, precision int) string {
	s := strconv.FormatFloat(value, 'f', precision, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// formatPercent 带符号保留一位小数，整数时去掉小数部分。
func formatPercent(value float64) string {
	s := fmt.Sprintf("%+.1f%%", value)
	if strings.HasSuffix(s, ".0%") {
		s = strings.Replace(s, ".0%", "%", 1)
	}
	return s
}

// formatRatio 以逗号作小数分隔符输出盈亏比。
func formatRatio(ratio float64) string {
	s := strconv.FormatFloat(ratio, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return strings.ReplaceAll(s, ".", ",")
}
