package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"forex-signal/internal/dto"
	"forex-signal/internal/model"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderExecution prints the signals of a finished run and its summary line.
func renderExecution(w io.Writer, execution *model.ScanExecution) error {
	var signals []dto.Signal
	if len(execution.Signals) > 0 {
		if err := json.Unmarshal(execution.Signals, &signals); err != nil {
			return fmt.Errorf("failed to decode signals: %w", err)
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Symbol", "Type", "Direction", "Entry", "Stop Loss", "Take Profit", "R:R", "Confidence"})
	for _, s := range signals {
		t.AppendRow(table.Row{
			s.Symbol,
			s.Type,
			s.Direction,
			fmt.Sprintf("%.5f", s.Entry),
			formatStopLoss(s.StopLoss),
			joinFloats(s.TakeProfit, "%.5f"),
			joinFloats(s.RiskReward(), "%.2f"),
			fmt.Sprintf("%d%%", s.Confidence),
		})
	}
	if len(signals) == 0 {
		t.AppendRow(table.Row{"-", "-", "-", "-", "-", "-", "-", "-"})
	}
	t.Render()

	exitCode := int32(0)
	if execution.ExitCode != nil {
		exitCode = *execution.ExitCode
	}
	fmt.Fprintf(w, "job=%s status=%s exit_code=%d\n", execution.JobType, execution.Status, exitCode)
	if execution.Output != nil {
		fmt.Fprintln(w, *execution.Output)
	}
	return nil
}

func formatStopLoss(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.5f", v)
}

func joinFloats(values []float64, format string) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf(format, v)
	}
	return strings.Join(parts, " / ")
}
