//go:build darwin

package main

import (
	"context"
	"log/slog"

	"github.com/prashantgupta24/mac-sleep-notifier/notifier"
)

// watchPower reports system sleep and wake.
func watchPower(ctx context.Context, logger *slog.Logger) (asleep, awake <-chan struct{}) {
	activity := notifier.GetInstance().Start()
	sleepCh := make(chan struct{}, 1)
	wakeCh := make(chan struct{}, 1)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-activity:
				if !ok {
					return
				}
				switch a.Type {
				case notifier.Sleep:
					logger.Info("System sleep detected")
					notify(sleepCh)
				case notifier.Awake:
					logger.Info("System wake detected")
					notify(wakeCh)
				}
			}
		}
	}()
	return sleepCh, wakeCh
}
