package usecase

import (
	"errors"
	"strings"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrUserRejected          = errors.New("user rejected request")
	ErrWrongNetwork          = errors.New("wrong network")
	ErrBusy                  = errors.New("operation already in progress")
)

// ChainError is a wallet or contract failure reduced to a displayable
// name and message. No chain error leaves the use case layer unparsed.
type ChainError struct {
	Name    string
	Message string
}

func (e *ChainError) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}

// Revert reasons the contract is known to emit, mapped to remediation
// text. Unknown reasons pass through verbatim.
var friendlyReverts = map[string]string{
	"erc20: insufficient allowance":       "Approve spending for the selected token first",
	"erc20: transfer amount exceeds":      "Insufficient token balance for this deposit",
	"insufficient funds":                  "Insufficient funds to cover value and gas",
	"transfermanager__calleralreadyadded": "Operator approval already granted, retry the deposit",
	"invaliddepositvalue":                 "Deposit value does not meet the round entry price",
	"roundnotopen":                        "The round is no longer accepting deposits",
	"cutofftimereached":                   "The round entry window has closed",
	"maximumnumberofdepositsreached":      "The round deposit limit has been reached",
	"notwinner":                           "Only the round winner can claim these prizes",
	"alreadyclaimed":                      "These prizes have already been claimed",
}

// ParseChainError normalizes any error from the wallet or RPC layer
// into a ChainError, classifying user rejection and network mismatch
// along the way.
func ParseChainError(err error) *ChainError {
	if err == nil {
		return nil
	}

	var parsed *ChainError
	if errors.As(err, &parsed) {
		return parsed
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case errors.Is(err, ErrUserRejected),
		strings.Contains(lower, "user rejected"),
		strings.Contains(lower, "user denied"):
		return &ChainError{Name: "Request Rejected", Message: "The transaction was rejected in the wallet"}
	case errors.Is(err, ErrWrongNetwork), strings.Contains(lower, "wrong network"):
		return &ChainError{Name: "Wrong Network", Message: "Switch to the supported network and retry"}
	}

	if reason, ok := extractRevertReason(lower); ok {
		for prefix, friendly := range friendlyReverts {
			if strings.HasPrefix(reason, prefix) {
				return &ChainError{Name: "Transaction Reverted", Message: friendly}
			}
		}
		return &ChainError{Name: "Transaction Reverted", Message: reason}
	}

	if strings.Contains(lower, "insufficient funds") {
		return &ChainError{Name: "Insufficient Funds", Message: "Insufficient funds to cover value and gas"}
	}

	return &ChainError{Name: "Transaction Failed", Message: msg}
}

func extractRevertReason(msg string) (string, bool) {
	for _, marker := range []string{"execution reverted: ", "reverted with reason string '", "revert: "} {
		if _, after, ok := strings.Cut(msg, marker); ok {
			after = strings.TrimSuffix(after, "'")
			return strings.TrimSpace(after), true
		}
	}
	if strings.Contains(msg, "execution reverted") {
		return "execution reverted", true
	}
	return "", false
}
