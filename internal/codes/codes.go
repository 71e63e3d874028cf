// Package codes defines the gateway's public error-code catalog.
//
// Every response written by the gateway carries one of these codes. The codes
// are a stable external contract: clients branch on them, so entries are never
// renumbered or removed. Groups:
//
//   - 00000 / 10000          generic
//   - 10001 .. 10003         upstream service
//   - 20000 .. 21060         user / authentication
//   - 30001 .. 30006         parameters / validation
//   - 50001 .. 50002         persistence
//
// The catalog is immutable after package initialisation and safe for
// concurrent reads.
package codes

// ErrorCode pairs a stable code with its default (English) message.
type ErrorCode struct {
	Code    string `json:"code" example:"21030"`
	Message string `json:"message" example:"token expired, please log in again"`
}

// Generic.
var (
	Success     = ErrorCode{Code: "00000", Message: "success"}
	SystemError = ErrorCode{Code: "10000", Message: "system error"}
)

// Upstream service.
var (
	ServiceNotExist  = ErrorCode{Code: "10001", Message: "service does not exist"}
	ServiceTimeout   = ErrorCode{Code: "10002", Message: "service call timed out"}
	ServiceException = ErrorCode{Code: "10003", Message: "service call failed"}
)

// User / authentication.
var (
	UserNotExist          = ErrorCode{Code: "20000", Message: "user does not exist"}
	UserNotLogin          = ErrorCode{Code: "20001", Message: "user not logged in"}
	UserPasswordIncorrect = ErrorCode{Code: "20002", Message: "incorrect password"}
	UserAccessDenied      = ErrorCode{Code: "20003", Message: "access denied"}
	UserPasswordNotSet    = ErrorCode{Code: "20004", Message: "login password has not been set, use quick login or reset your password"}
	UserPasswordEmpty     = ErrorCode{Code: "21010", Message: "password is empty"}
	UserPasswordFormat    = ErrorCode{Code: "21020", Message: "invalid password format"}
	UserTokenTimeout      = ErrorCode{Code: "21030", Message: "token expired, please log in again"}
	UserTokenRepeat       = ErrorCode{Code: "21040", Message: "logged in from another location"}
	UserAccountError      = ErrorCode{Code: "21050", Message: "account error"}
	UserAccountLocked     = ErrorCode{Code: "21060", Message: "account locked"}
)

// Parameters / validation.
var (
	ParamError            = ErrorCode{Code: "30001", Message: "invalid parameter"}
	ParamRepeatSubmit     = ErrorCode{Code: "30002", Message: "duplicate submission"}
	ParamValidatorError   = ErrorCode{Code: "30003", Message: "incorrect verification code"}
	ParamValidatorTimeout = ErrorCode{Code: "30004", Message: "verification code expired, please request a new one"}
	ParamWarning          = ErrorCode{Code: "30006", Message: "too many incorrect password attempts"}
)

// Persistence.
var (
	InsertTableError = ErrorCode{Code: "50001", Message: "failed to persist data"}
	AmountChanged    = ErrorCode{Code: "50002", Message: "amount has changed"}
)

// Registry lists the catalog in declaration order.
var Registry = []ErrorCode{
	Success,
	SystemError,
	ServiceNotExist,
	ServiceTimeout,
	ServiceException,
	UserNotExist,
	UserNotLogin,
	UserPasswordIncorrect,
	UserAccessDenied,
	UserPasswordNotSet,
	UserPasswordEmpty,
	UserPasswordFormat,
	UserTokenTimeout,
	UserTokenRepeat,
	UserAccountError,
	UserAccountLocked,
	ParamError,
	ParamRepeatSubmit,
	ParamValidatorError,
	ParamValidatorTimeout,
	ParamWarning,
	InsertTableError,
	AmountChanged,
}

// Lookup returns the catalog entry for code.
func Lookup(code string) (ErrorCode, bool) {
	for _, ec := range Registry {
		if ec.Code == code {
			return ec, true
		}
	}
	return ErrorCode{}, false
}

// MessageByCode returns the default message registered for code.
func MessageByCode(code string) (string, bool) {
	ec, ok := Lookup(code)
	return ec.Message, ok
}

// CodeByMessage returns the code whose default message equals msg.
func CodeByMessage(msg string) (string, bool) {
	for _, ec := range Registry {
		if ec.Message == msg {
			return ec.Code, true
		}
	}
	return "", false
}
