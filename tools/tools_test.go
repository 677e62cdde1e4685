package tools

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestPoll_StopsWhenDone(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), time.Millisecond, 10, func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPoll_Exhausted(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), time.Millisecond, 4, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	assert.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestPoll_CheckErrorIsNotRetried(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Poll(context.Background(), time.Millisecond, 5, func(ctx context.Context) (bool, error) {
		calls++
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPoll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Poll(ctx, time.Hour, 2, func(ctx context.Context) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Error(t, Poll(ctx, time.Hour, 0, nil))
}

func TestSetLogger(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	SetLogger("debug")
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	SetLogger("info")
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	SetLogger("")
	assert.Equal(t, log.WarnLevel, log.GetLevel())
}

func TestSetLogger_AnyLevel(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	SetLogger("error")
	assert.Equal(t, log.ErrorLevel, log.GetLevel())
	SetLogger("verbose")
	assert.Equal(t, log.WarnLevel, log.GetLevel())
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, PrintJSON(&buf, map[string]int{"result": 7}))
	assert.Equal(t, "{\n  \"result\": 7\n}\n", buf.String())
}
