// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors.
//
// Not-found errors end the current earnings event only; the pipeline skips
// the event and continues. Provider errors carry the upstream cause.
var (
	// Not-found errors
	ErrNoEarningsDates   = &Error{Code: "NO_EARNINGS_DATES", Message: "no earnings dates found"}
	ErrNoTradingSessions = &Error{Code: "NO_TRADING_SESSIONS", Message: "no trading sessions in range"}
	ErrNoReferencePrice  = &Error{Code: "NO_REFERENCE_PRICE", Message: "no reference price bar available"}
	ErrNoContractMatch   = &Error{Code: "NO_CONTRACT_MATCH", Message: "no matching option contracts"}
	ErrNoBars            = &Error{Code: "NO_BARS", Message: "no price bars returned"}

	// Data quality errors
	ErrDataQuality  = &Error{Code: "DATA_QUALITY", Message: "series unusable after alignment"}
	ErrZeroBaseline = &Error{Code: "ZERO_BASELINE", Message: "baseline straddle price is zero"}

	// Upstream errors
	ErrProviderFailed = &Error{Code: "PROVIDER_FAILED", Message: "market data provider failed"}
	ErrScrapeFailed   = &Error{Code: "SCRAPE_FAILED", Message: "earnings calendar scrape failed"}

	// Store errors
	ErrStoreFailed = &Error{Code: "STORE_FAILED", Message: "cache store operation failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)

// IsNotFound reports whether err is one of the not-found error codes.
func IsNotFound(err error) bool {
	for _, base := range []*Error{
		ErrNoEarningsDates, ErrNoTradingSessions, ErrNoReferencePrice,
		ErrNoContractMatch, ErrNoBars,
	} {
		if errors.Is(err, base) {
			return true
		}
	}
	return false
}
