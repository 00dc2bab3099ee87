package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"festival-chat-api/apperror"
	"festival-chat-api/config/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestGuardRetriesTransientFailuresOnce(t *testing.T) {
	guard := NewGuard(time.Second, logger.NewNopLogger())

	calls := 0
	err := guard.Run(context.Background(), "flaky", func(context.Context) error {
		calls++
		if calls == 1 {
			return io.ErrUnexpectedEOF
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = guard.Run(context.Background(), "down", func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: "08006"}
	})
	assert.Equal(t, 2, calls)
	assert.True(t, apperror.Is(err, apperror.KindService))
}

func TestGuardPassesThroughKnownErrors(t *testing.T) {
	guard := NewGuard(0, logger.NewNopLogger())
	assert.Equal(t, defaultTimeout, guard.Timeout)

	for _, known := range []error{
		gorm.ErrRecordNotFound,
		fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey),
		apperror.Conflict("taken"),
	} {
		calls := 0
		err := guard.Run(context.Background(), "known", func(context.Context) error {
			calls++
			return known
		})
		assert.Same(t, known, err)
		assert.Equal(t, 1, calls)
	}

	err := guard.Run(context.Background(), "broken", func(context.Context) error {
		return errors.New("syntax error at or near")
	})
	assert.True(t, apperror.Is(err, apperror.KindService))
}

func TestGuardAppliesTimeout(t *testing.T) {
	guard := NewGuard(10*time.Millisecond, logger.NewNopLogger())

	err := guard.Run(context.Background(), "slow", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		<-ctx.Done()
		return ctx.Err()
	})
	assert.True(t, apperror.Is(err, apperror.KindService))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsDuplicate(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsDuplicate(errors.New("UNIQUE constraint failed: t_chat.name_key")))
	assert.False(t, IsDuplicate(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsDuplicate(nil))

	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransient(errors.New("database is locked")))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransient(gorm.ErrRecordNotFound))
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%main stage%", ContainsPattern("Main Stage"))
	assert.Equal(t, `%100\%\_off%`, ContainsPattern("100%_off"))
	assert.Equal(t, `%c:\\tmp%`, ContainsPattern(`C:\tmp`))
}
