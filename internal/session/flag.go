package session

import (
	"context"

	"go.uber.org/zap"

	"labelshop/internal/clientstore"
	"labelshop/internal/logging"
)

// Flag is the "might have a valid session" heuristic. It is read from storage once;
// MightHaveValidSession never does I/O. The server stays the authority on whether
// the session is actually valid.
type Flag struct {
	flag   *clientstore.Flag
	logger *zap.Logger
}

// LoadFlag reads the flag under clientstore.KeyAuthSession. Storage errors are logged
// and leave the flag false.
func LoadFlag(ctx context.Context, store clientstore.Storage, logger *zap.Logger) *Flag {
	logger = logging.OrNop(logger).Named("session")
	f, err := clientstore.LoadFlag(ctx, store, clientstore.KeyAuthSession)
	if err != nil {
		logger.Warn("load session flag failed", zap.Error(err))
	}
	return &Flag{flag: f, logger: logger}
}

func (f *Flag) MightHaveValidSession() bool {
	return f.flag.Get()
}

// MarkLoggedIn is called after login, registration and refresh.
func (f *Flag) MarkLoggedIn(ctx context.Context) {
	if err := f.flag.Set(ctx, true); err != nil {
		f.logger.Warn("persist session flag failed", zap.Error(err))
	}
}

// MarkLoggedOut is called on explicit logout only.
func (f *Flag) MarkLoggedOut(ctx context.Context) {
	if err := f.flag.Set(ctx, false); err != nil {
		f.logger.Warn("persist session flag failed", zap.Error(err))
	}
}
