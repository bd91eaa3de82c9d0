package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// loopSafely calls f until ctx is done, restarting it after a panic.
func loopSafely(ctx context.Context, logger *zap.SugaredLogger, f func()) {
	defer func() {
		if v := recover(); v != nil {
			logger.Errorw("Panic, restarting", "panic", v)
			time.Sleep(time.Second)
			go loopSafely(ctx, logger, f)
		}
	}()

	for ctx.Err() == nil {
		f()
	}
}
