package testutil

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/customeros/mailgate/internal/logger"
)

// ObservedLogger records every entry at debug level and above.
func ObservedLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewZapLogger(zap.New(core)), logs
}

// LoggedText flattens messages and field values of all recorded entries, one entry per line.
func LoggedText(logs *observer.ObservedLogs) string {
	var b strings.Builder
	for _, entry := range logs.All() {
		b.WriteString(entry.Message)
		fields := entry.ContextMap()
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, " %s=%v", key, fields[key])
		}
		b.WriteString("\n")
	}
	return b.String()
}
