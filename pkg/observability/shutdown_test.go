package observability

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	return NewLogger(logrus.PanicLevel, JSONFormat, io.Discard)
}

func TestShutdownManager_RunsAllFuncs(t *testing.T) {
	sm := NewShutdownManager(quietLogger(), nil, time.Second)

	var calls int32
	for _, name := range []string{"store", "redis", "otel"} {
		sm.Register(name, func(context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}

	assert.NoError(t, sm.Shutdown())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestShutdownManager_CollectsErrors(t *testing.T) {
	sm := NewShutdownManager(quietLogger(), nil, time.Second)
	sm.Register("store", func(context.Context) error { return errors.New("close failed") })
	sm.Register("cache", func(context.Context) error { return nil })

	err := sm.Shutdown()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store: close failed")
}

func TestShutdownManager_Timeout(t *testing.T) {
	sm := NewShutdownManager(quietLogger(), nil, 20*time.Millisecond)
	sm.Register("slow", func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	assert.Error(t, sm.Shutdown())
}

func TestShutdownManager_WaitForShutdown(t *testing.T) {
	sm := NewShutdownManager(quietLogger(), nil, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, sm.WaitForShutdown(ctx))
}
