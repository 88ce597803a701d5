// Package observe adapts the sync layer's logging callbacks onto zap.
package observe

import (
	"github.com/MarkoPoloResearchLab/walletsync/pkg/wallet"
	"go.uber.org/zap"
)

// FetchLogger logs cache fetch attempts through zap.
type FetchLogger struct {
	logger *zap.Logger
}

// NewFetchLogger wires a FetchLogger.
func NewFetchLogger(logger *zap.Logger) *FetchLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchLogger{logger: logger}
}

// LogFetch implements wallet.FetchLogger.
func (fetchLogger *FetchLogger) LogFetch(entry wallet.FetchLog) {
	fields := []zap.Field{
		zap.String("resource", entry.Resource),
		zap.String("trigger", entry.Trigger),
		zap.String("status", entry.Status),
	}
	if entry.Error != nil {
		fetchLogger.logger.Warn("wallet fetch", append(fields, zap.Error(entry.Error))...)
		return
	}
	fetchLogger.logger.Debug("wallet fetch", fields...)
}

// RecoveryLogger logs local ledger recoveries through zap.
type RecoveryLogger struct {
	logger *zap.Logger
}

// NewRecoveryLogger wires a RecoveryLogger.
func NewRecoveryLogger(logger *zap.Logger) *RecoveryLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecoveryLogger{logger: logger}
}

// LogRecovery implements localledger.RecoveryLogger.
func (recoveryLogger *RecoveryLogger) LogRecovery(reason string, err error) {
	recoveryLogger.logger.Warn("ledger state recovered to defaults",
		zap.String("reason", reason),
		zap.Error(err),
	)
}
