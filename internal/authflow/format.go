package authflow

import (
	"errors"
	"regexp"
	"strings"
)

// MsgGenericFailure is shown when the transport gives neither data nor an error.
const MsgGenericFailure = "Something went wrong. Please try again."

var (
	// transportTag matches leading tags such as "[GraphQL] " or "[Network] ".
	transportTag = regexp.MustCompile(`^\s*(\[[^\]]*\]\s*)+`)
	// wrapPrefix matches one leading single-word prefix such as "wrapped: ".
	wrapPrefix = regexp.MustCompile(`^[\w.-]+:\s+`)
)

// FormatErrorMessage turns a raw transport error into the text shown in the
// banner. Go error chains are unwrapped to their innermost cause, then leading
// transport tags and one single-word wrapping prefix are removed, so
// "[GraphQL] wrapped: invalid credentials" becomes "invalid credentials" while
// "[GraphQL] user not found: a@b.com" keeps the server's whole sentence.
func FormatErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(err) {
		err = next
	}
	msg := transportTag.ReplaceAllString(err.Error(), "")
	msg = wrapPrefix.ReplaceAllString(msg, "")
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return MsgGenericFailure
	}
	return msg
}
