package observe

import (
	"errors"
	"testing"

	"github.com/MarkoPoloResearchLab/walletsync/pkg/wallet"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFetchLoggerLevelsByOutcome(test *testing.T) {
	test.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	fetchLogger := NewFetchLogger(zap.New(core))

	fetchLogger.LogFetch(wallet.FetchLog{Resource: "balance", Trigger: "poll", Status: "ok"})
	fetchLogger.LogFetch(wallet.FetchLog{Resource: "balance", Trigger: "poll", Status: "error", Error: errors.New("boom")})

	entries := logs.All()
	if len(entries) != 2 {
		test.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		test.Fatalf("expected successful fetch at debug level, got %v", entries[0].Level)
	}
	if entries[1].Level != zapcore.WarnLevel {
		test.Fatalf("expected failed fetch at warn level, got %v", entries[1].Level)
	}
	fields := entries[1].ContextMap()
	if fields["resource"] != "balance" {
		test.Fatalf("expected resource field, got %v", fields)
	}
}

func TestRecoveryLoggerWarnsWithReason(test *testing.T) {
	test.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	recoveryLogger := NewRecoveryLogger(zap.New(core))

	recoveryLogger.LogRecovery("unparsable_record", errors.New("bad json"))

	entries := logs.All()
	if len(entries) != 1 {
		test.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		test.Fatalf("expected warn level, got %v", entries[0].Level)
	}
	if entries[0].ContextMap()["reason"] != "unparsable_record" {
		test.Fatalf("expected reason field, got %v", entries[0].ContextMap())
	}
}

func TestNilLoggerFallsBackToNop(test *testing.T) {
	test.Parallel()

	NewFetchLogger(nil).LogFetch(wallet.FetchLog{Resource: "balance", Trigger: "initial", Status: "ok"})
	NewRecoveryLogger(nil).LogRecovery("load_failed", errors.New("disk gone"))
}
