package types

// Error codes in machine readable failure output.
const (
	CodeInvalidArgument   = "invalid_argument"
	CodeTruncatedResponse = "truncated_response"
	CodeChecksumMismatch  = "checksum_mismatch"
	CodeTimeout           = "timeout"
	CodeConnectionError   = "connection_error"
	CodeInternalError     = "internal_error"
)

type ErrorBody struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Details any    `json:"details,omitempty" yaml:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error" yaml:"error"`
}

// NewErrorResponse builds the payload printed when a scan fails.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
