package localledger

import "errors"

// Domain-level error values returned by the local ledger.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidMode        = errors.New("invalid mode")
	ErrInvalidStoreConfig = errors.New("invalid store config")
)
