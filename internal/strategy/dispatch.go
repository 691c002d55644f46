package strategy

import (
	"context"

	"forex-signal/internal/contract"
	"forex-signal/internal/dto"
	"forex-signal/pkg/logger"
	"forex-signal/pkg/utils"
)

// dispatchSignals sends every signal in order. A failed send is logged and
// counted; the remaining signals are still attempted. When ctx ends before
// every signal is sent, the unsent ones count as SendFailed and ctx.Err() is
// returned so the run is not recorded as completed.
func dispatchSignals(
	ctx context.Context,
	log *logger.Logger,
	sender contract.SignalSender,
	jobType JobType,
	signals []dto.Signal,
	parseMode string,
	render func(dto.Signal) string,
	summary *ScanSummary,
) error {
	for i, signal := range signals {
		if !utils.ShouldContinue(ctx, log) {
			summary.SendFailed += len(signals) - i
			return ctx.Err()
		}

		sent, err := sender.SendSignal(ctx, jobType.String(), signal, render(signal), parseMode)
		switch {
		case err != nil:
			summary.SendFailed++
			log.ErrorContext(ctx, "Failed to send signal",
				logger.ErrorField(err),
				logger.StringField("job", jobType.String()),
				logger.StringField("symbol", signal.Symbol),
			)
		case !sent:
			summary.Duplicates++
		default:
			summary.Sent++
			log.InfoContext(ctx, "Signal sent",
				logger.StringField("job", jobType.String()),
				logger.StringField("symbol", signal.Symbol),
				logger.StringField("direction", string(signal.Direction)),
				logger.IntField("confidence", signal.Confidence),
			)
		}
	}
	return nil
}
