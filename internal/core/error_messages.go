package core

// error_messages.go maps technical pipeline errors to user-facing
// messages. Each message carries a short support code users can quote when
// reporting a problem:
//
//	REF001 - malformed range reference
//	REF002 - object range is not a single row or column
//	REF003 - a required range is missing from the configuration
//	TPL001 - template document could not be parsed
//	CSV001 - compare input could not be decoded
//	RUN001 - a generation run is already in flight
//	ERR000 - fallback for anything unrecognized
//
// The original error is always logged server-side; only the mapped message
// reaches the client.

import "errors"

// UserMessage is the client-facing rendering of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var errorMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrInvalidReference, UserMessage{
		Message: "A range reference is not valid",
		Action:  "Use A1 notation, e.g. B2 or B2:D10",
		Code:    "REF001",
	}},
	{ErrNotVector, UserMessage{
		Message: "Object A and Object B ranges must be a single column or a single row",
		Action:  "Adjust the range so it covers one row or one column",
		Code:    "REF002",
	}},
	{ErrMissingRange, UserMessage{
		Message: "The configuration is missing a required range",
		Action:  "Fill in every range the selected mode needs",
		Code:    "REF003",
	}},
	{ErrInvalidTemplate, UserMessage{
		Message: "The template could not be read",
		Action:  "Check that the template file is valid JSON saved by this tool",
		Code:    "TPL001",
	}},
	{ErrBadCSV, UserMessage{
		Message: "The CSV document could not be parsed",
		Action:  "Check that the file is comma-separated text",
		Code:    "CSV001",
	}},
	{ErrRunInFlight, UserMessage{
		Message: "Another generation run is still in progress",
		Action:  "Wait for it to finish and try again",
		Code:    "RUN001",
	}},
}

// defaultMessage is the fallback when no sentinel matches. Support staff
// should check the server log for the technical error when users report
// ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to its user-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, em := range errorMessages {
		if errors.Is(err, em.target) {
			return em.msg
		}
	}
	return defaultMessage
}

// IsUserFacing reports whether the error maps to a specific message rather
// than the ERR000 fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
