package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"runtime"
	"strings"

	"forex-signal/pkg/logger"
)

// GoSafe runs fn in a goroutine; a panic is logged with an alert instead of
// killing the process.
func GoSafe(log *logger.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.ErrorContextWithAlert(context.Background(), "Recovered from panic", logger.Field("panic", r))
			}
		}()
		fn()
	}()
}

func ToPointer[T any](value T) *T {
	return &value
}

// ShouldContinue is false once ctx is done; the caller's name is logged.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	if ctx.Err() == nil {
		return true
	}
	caller := "unknown"
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()[strings.LastIndex(fn.Name(), "/")+1:]
		}
	}
	log.WarnContext(ctx, "Context cancelled", logger.StringField("caller", caller), logger.ErrorField(ctx.Err()))
	return false
}

const markdownV2Reserved = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkdownV2 backslash-escapes every character Telegram reserves in
// MarkdownV2 text.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownV2Reserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// HashIdentifier joins parts with "|" and returns the hex sha256 of the result.
func HashIdentifier(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}

func FormatPrice(value float64, decimals int) string {
	return fmt.Sprintf("%.*f", decimals, value)
}

// Round rounds value half away from zero to the given number of decimals.
func Round(value float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(value*pow) / pow
}
