package models

// Error codes returned in ErrorResponse.Code.
const (
	ErrCodeBadRequest         = 40000
	ErrCodeValidation         = 40001
	ErrCodeUndefinedVariable  = 40002
	ErrCodeNoAccount          = 40100
	ErrCodeForbidden          = 40300
	ErrCodeNotFound           = 40400
	ErrCodeNoTemplate         = 40401
	ErrCodeInvalidTransition  = 40900
	ErrCodeConflictingCurrent = 40901
	ErrCodeJobTerminal        = 40902
	ErrCodeUnsafeContent      = 42200
	ErrCodeRateLimited        = 42900
	ErrCodeQuotaExceeded      = 42901
	ErrCodeProviderError      = 50200
	ErrCodeTimeout            = 50400
	ErrCodeInternal           = 50000
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}
