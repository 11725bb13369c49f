package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrorCategory represents the category of an error as observed by the client
type ErrorCategory string

const (
	// CategoryNetwork means no HTTP response was reachable
	CategoryNetwork ErrorCategory = "network"
	// CategoryHTTP means the server answered with a non-2xx status
	CategoryHTTP ErrorCategory = "http"
	// CategoryWallet means the wallet provider refused or failed a request
	CategoryWallet ErrorCategory = "wallet"
	// CategoryContract means a contract call reverted
	CategoryContract ErrorCategory = "contract"
	// CategoryValidation means client-side input validation failed
	CategoryValidation ErrorCategory = "validation"
	// CategoryUnavailable means a remote service is being short-circuited
	CategoryUnavailable ErrorCategory = "unavailable"
	// CategoryInternal is everything else
	CategoryInternal ErrorCategory = "internal"
)

// Wallet provider error codes
const (
	CodeUserRejected       = "4001"
	CodeRequestPending     = "-32002"
	CodeUnrecognizedChain  = "4902"
	CodeActionRejected     = "ACTION_REJECTED"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeExecutionReverted  = "EXECUTION_REVERTED"
	CodeNetworkError       = "NETWORK_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// CategorizedError represents an error with category, status and code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// Transport errors

// NewNetworkError creates an error for a request that never got a response
func NewNetworkError(target string, cause error) *CategorizedError {
	return &CategorizedError{
		Category: CategoryNetwork,
		Code:     CodeNetworkError,
		Message:  fmt.Sprintf("cannot reach %s", target),
		Cause:    cause,
		Details: map[string]interface{}{
			"target": target,
		},
	}
}

// NewHTTPError creates an error from a non-2xx response
func NewHTTPError(status int, serverMessage string) *CategorizedError {
	msg := serverMessage
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "unknown error"
	}
	return &CategorizedError{
		Category:   CategoryHTTP,
		StatusCode: status,
		Code:       "HTTP_" + strconv.Itoa(status),
		Message:    msg,
	}
}

// NewUnavailableError creates a fail-fast error for a short-circuited service
func NewUnavailableError(service string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUnavailable,
		StatusCode: http.StatusServiceUnavailable,
		Code:       CodeServiceUnavailable,
		Message:    fmt.Sprintf("service unavailable: %s", service),
		Cause:      cause,
		Details: map[string]interface{}{
			"service": service,
		},
	}
}

// Wallet errors

// NewWalletError creates a wallet provider error with a vendor code
func NewWalletError(code string, message string) *CategorizedError {
	return &CategorizedError{
		Category: CategoryWallet,
		Code:     code,
		Message:  message,
	}
}

// NewUserRejectedError creates the error returned when the user declines a wallet prompt
func NewUserRejectedError() *CategorizedError {
	return NewWalletError(CodeUserRejected, "user rejected the request")
}

// NewRequestPendingError creates the error returned when a wallet prompt is already open
func NewRequestPendingError() *CategorizedError {
	return NewWalletError(CodeRequestPending, "a wallet request is already pending")
}

// NewUnrecognizedChainError creates the error returned when switching to an unknown network
func NewUnrecognizedChainError(chainID string) *CategorizedError {
	err := NewWalletError(CodeUnrecognizedChain, fmt.Sprintf("unrecognized chain id %s", chainID))
	err.Details = map[string]interface{}{"chainId": chainID}
	return err
}

// NewInsufficientFundsError creates the error returned when the account cannot pay value plus gas
func NewInsufficientFundsError(cause error) *CategorizedError {
	err := NewWalletError(CodeInsufficientFunds, "insufficient funds for value and gas")
	err.Cause = cause
	return err
}

// Contract errors

// NewRevertError creates an error for a reverted contract call; reason may be empty
func NewRevertError(reason string, cause error) *CategorizedError {
	msg := "execution reverted"
	if reason != "" {
		msg = reason
	}
	return &CategorizedError{
		Category: CategoryContract,
		Code:     CodeExecutionReverted,
		Message:  msg,
		Cause:    cause,
		Details: map[string]interface{}{
			"reason": reason,
		},
	}
}

// Input errors

// NewValidationError creates a client-side validation error
func NewValidationError(field string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_" + strings.ToUpper(field),
		Message:    reason,
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

// NewUnauthorizedError creates the error returned when an action needs a session
func NewUnauthorizedError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryHTTP,
		StatusCode: http.StatusUnauthorized,
		Code:       "HTTP_401",
		Message:    message,
	}
}

// NewInternalError creates an error for unexpected failures
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category: CategoryInternal,
		Code:     "INTERNAL_ERROR",
		Message:  message,
		Cause:    cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	return NewInternalError("unexpected error", err)
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr.StatusCode
	}
	return 0
}

// HasCode reports whether err is a categorized error with the given code
func HasCode(err error, code string) bool {
	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr.Code == code
	}
	return false
}

// IsUserRejected reports whether the user declined a wallet prompt
func IsUserRejected(err error) bool {
	return HasCode(err, CodeUserRejected) || HasCode(err, CodeActionRejected)
}

// IsUnrecognizedChain reports whether a network switch failed because the chain is unknown
func IsUnrecognizedChain(err error) bool {
	return HasCode(err, CodeUnrecognizedChain)
}

// IsUnauthorized reports whether err is a 401
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsNetwork reports whether no response was received
func IsNetwork(err error) bool {
	var catErr *CategorizedError
	return stderrors.As(err, &catErr) && catErr.Category == CategoryNetwork
}

// IsUserError determines if an error is a user error (4xx or local validation)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}
	if catErr.Category == CategoryValidation {
		return true
	}
	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}

// IsSystemError determines if an error is a system error (5xx)
func IsSystemError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}
	return catErr.StatusCode >= 500
}

var (
	revertReasonPattern = regexp.MustCompile(`reverted with reason string '([^']+)'`)
	// geth nodes report "execution reverted: <reason>"
	gethRevertPattern = regexp.MustCompile(`execution reverted: ([^\n]+)$`)
)

// ExtractRevertReason pulls a revert reason out of provider error text
func ExtractRevertReason(text string) string {
	if m := revertReasonPattern.FindStringSubmatch(text); len(m) == 2 {
		return m[1]
	}
	if m := gethRevertPattern.FindStringSubmatch(text); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// revertData decodes the Error(string) payload some RPC errors carry
func revertData(err error) string {
	var dataErr rpc.DataError
	if !stderrors.As(err, &dataErr) {
		return ""
	}
	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return ""
	}
	reason, unpackErr := abi.UnpackRevert(common.FromHex(hexData))
	if unpackErr != nil {
		return ""
	}
	return reason
}

// ClassifyTransactionError maps a raw wallet or chain failure onto the client taxonomy.
// Errors that are already categorized pass through unchanged.
func ClassifyTransactionError(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	text := err.Error()
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(text, CodeActionRejected),
		strings.Contains(lower, "user rejected"),
		strings.Contains(lower, "user denied"):
		return &CategorizedError{Category: CategoryWallet, Code: CodeActionRejected, Message: "transaction rejected by user", Cause: err}
	case strings.Contains(text, CodeInsufficientFunds), strings.Contains(lower, "insufficient funds"):
		return NewInsufficientFundsError(err)
	case strings.Contains(lower, "reverted"):
		reason := revertData(err)
		if reason == "" {
			reason = ExtractRevertReason(text)
		}
		return NewRevertError(reason, err)
	default:
		return NewInternalError("transaction failed", err)
	}
}
