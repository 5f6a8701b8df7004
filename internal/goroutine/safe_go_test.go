package goroutine

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/artistapp-backend/internal/logger"
)

func TestSafeGoRecoversFromPanic(t *testing.T) {
	logger.Init("error")
	logger.Log.SetOutput(io.Discard)
	hook := test.NewLocal(logger.Log)

	done := make(chan struct{})
	SafeGo(func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not finish")
	}

	// Запись в лог происходит уже после close(done) в отложенном recover.
	require.Eventually(t, func() bool {
		return hook.LastEntry() != nil
	}, time.Second, 10*time.Millisecond)

	entry := hook.LastEntry()
	assert.Equal(t, "Panic in goroutine", entry.Message)
	assert.Equal(t, "boom", entry.Data["panic"])
	assert.NotEmpty(t, entry.Data["stack"])
}

func TestSafeGoRunsFunction(t *testing.T) {
	done := make(chan struct{})
	SafeGo(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
}
