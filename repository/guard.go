package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"festival-chat-api/apperror"
	"festival-chat-api/config/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const defaultTimeout = 5 * time.Second

// Guard runs store operations with a deadline and retries a transient failure once.
type Guard struct {
	Timeout time.Duration
	Log     *logger.AppLogger
}

func NewGuard(timeout time.Duration, log *logger.AppLogger) *Guard {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Guard{Timeout: timeout, Log: log}
}

// Run calls fn with a context bounded by the guard timeout. Application errors,
// not-found and duplicate-key errors pass through untouched; anything else becomes a
// ServiceError after at most one retry.
func (g *Guard) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, g.Timeout)
		err = fn(opCtx)
		cancel()

		if err == nil || !IsTransient(err) || ctx.Err() != nil {
			break
		}
		g.Log.Http.Warning.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("Transient store failure")
	}
	return g.classify(op, err)
}

func (g *Guard) classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	if IsNotFound(err) || IsDuplicate(err) {
		return err
	}
	g.Log.Http.Error.Error().Err(err).Str("op", op).Msg("Store operation failed")
	return apperror.Service("Service temporarily unavailable, please retry", err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate recognises unique violations from postgres and sqlite, translated or not.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// connection exceptions, serialization failures, deadlocks, shutdowns
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "40001" ||
			pgErr.Code == "40P01" || pgErr.Code == "57P01"
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "connection reset")
}
