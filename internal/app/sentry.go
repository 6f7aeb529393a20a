package app

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry enables error reporting when a DSN is configured. The returned
// flush func is safe to call even when reporting is disabled.
func InitSentry(cfg Config, log Logger) (func(), error) {
	if cfg.SentryDSN == "" {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		AttachStacktrace: true,
	})
	if err != nil {
		return func() {}, err
	}

	log.Info("sentry.enabled")
	return func() { sentry.Flush(2 * time.Second) }, nil
}
