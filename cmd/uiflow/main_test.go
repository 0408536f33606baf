// cmd/uiflow/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(context.Canceled))
	assert.Equal(t, 0, exitCode(fmt.Errorf("run aborted: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.New("flow failed")))
	assert.Equal(t, 1, exitCode(context.DeadlineExceeded))
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	t.Run("writes panic log", func(t *testing.T) {
		var (
			written  string
			path     string
			exitWith = -1
		)
		osWriteFile = func(name string, data []byte, perm os.FileMode) error {
			path, written = name, string(data)
			return nil
		}
		osExit = func(code int) { exitWith = code }

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, panicLogFile, path)
		assert.Contains(t, written, "panic: boom")
		assert.Contains(t, written, "goroutine")
		assert.Equal(t, 2, exitWith)
	})

	t.Run("log write fails", func(t *testing.T) {
		exitWith := -1
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only filesystem") }
		osExit = func(code int) { exitWith = code }

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, 2, exitWith)
	})

	t.Run("no panic", func(t *testing.T) {
		called := false
		osExit = func(int) { called = true }

		func() {
			defer handlePanic()
		}()

		require.False(t, called)
	})
}
