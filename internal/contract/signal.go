package contract

import (
	"context"

	"forex-signal/internal/dto"
)

// SignalSender delivers rendered signals and notices to the configured chat.
type SignalSender interface {
	// SendSignal returns false without error when an identical signal was
	// already delivered inside the dedupe window.
	SendSignal(ctx context.Context, jobType string, signal dto.Signal, text string, parseMode string) (bool, error)
	SendNotice(ctx context.Context, text string, parseMode string) error
}

// MessageSender is the transport underneath SignalSender.
type MessageSender interface {
	SendMessage(ctx context.Context, text string, opts ...interface{}) error
}
