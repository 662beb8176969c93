// Package require provides hard assertion helpers: a failed check stops the test.
package require

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// Equal compares values using comparison operator.
func Equal(tb testing.TB, expected, actual interface{}, msg ...interface{}) {
	tb.Helper()
	require.Equal(tb, expected, actual, msg...)
}

// NotEqual compares values using comparison operator.
func NotEqual(tb testing.TB, expected, actual interface{}, msg ...interface{}) {
	tb.Helper()
	require.NotEqual(tb, expected, actual, msg...)
}

// DeepEqual compares values using DeepEqual.
func DeepEqual(tb testing.TB, expected, actual interface{}, msg ...interface{}) {
	tb.Helper()
	require.Equal(tb, expected, actual, msg...)
}

// NoError asserts that error is nil.
func NoError(tb testing.TB, err error, msg ...interface{}) {
	tb.Helper()
	require.NoError(tb, err, msg...)
}

// ErrorContains asserts that actual error contains wanted message.
func ErrorContains(tb testing.TB, want string, err error, msg ...interface{}) {
	tb.Helper()
	require.Error(tb, err, msg...)
	require.Contains(tb, err.Error(), want, msg...)
}

// ErrorIs asserts that err wraps target.
func ErrorIs(tb testing.TB, err, target error, msg ...interface{}) {
	tb.Helper()
	require.ErrorIs(tb, err, target, msg...)
}

// NotNil asserts that passed value is not nil.
func NotNil(tb testing.TB, obj interface{}, msg ...interface{}) {
	tb.Helper()
	require.NotNil(tb, obj, msg...)
}

// IsNil asserts that passed value is nil.
func IsNil(tb testing.TB, obj interface{}, msg ...interface{}) {
	tb.Helper()
	require.Nil(tb, obj, msg...)
}

// LogsContain checks that the desired string is a subset of the current log output.
func LogsContain(tb testing.TB, hook *test.Hook, want string, msg ...interface{}) {
	tb.Helper()
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, want) {
			return
		}
	}
	require.FailNow(tb, "log not found: "+want, msg...)
}

// LogsDoNotContain is the inverse check of LogsContain.
func LogsDoNotContain(tb testing.TB, hook *test.Hook, want string, msg ...interface{}) {
	tb.Helper()
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, want) {
			require.FailNow(tb, "unwanted log found: "+want, msg...)
		}
	}
}
