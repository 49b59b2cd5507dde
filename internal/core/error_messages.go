// Package core provides the delimited-text engine.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Encoding Errors (ENC001-ENC099)
//
//	ENC001 - Not UTF-8: File is not encoded in UTF-8
//	         Action: Convert the file to UTF-8 (iconv, or save as UTF-8 in your editor)
//	         Patterns: "not encoded in utf-8"
//
//	ENC002 - Double-encoded: File contains double-encoded characters
//	         Action: Re-export the file as UTF-8 from the original source
//	         Patterns: "double-encoded"
//
//	ENC003 - Unsupported encoding: The requested encoding is not supported
//	         Action: Use UTF-8, UTF-16, Windows-1252, ISO-8859-1 or ISO-8859-15
//	         Patterns: "unsupported encoding"
//
//	ENC004 - Invalid field: A field is not valid in the expected encoding
//	         Action: Fix the reported field or read with action "fix"
//	         Patterns: "invalid encoding detected"
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Middleware option: A middleware option is invalid
//	         Action: Check the pipeline definition
//	         Patterns: "configuration error"
//
//	CFG002 - Dialect: Delimiter, enclosure or line delimiter is invalid
//	         Action: Use distinct single characters for delimiter and enclosure
//	         Patterns: "invalid dialect"
//
// # File and Stream Errors (IO001-IO099)
//
//	IO001 - File access: The file could not be read or written
//	        Action: Check the path and permissions
//	        Patterns: "io error"
//
//	IO002 - Invalid stream: The output stream is not writable
//	        Action: Pass an open, writable stream
//	        Patterns: "invalid resource"
//
//	IO003 - Too large: Input exceeds the maximum size
//	        Action: Split the file or use the streaming endpoint
//	        Patterns: "too large"
//
//	IO004 - Bad records: Records could not be decoded
//	        Action: Send a JSON array of objects or arrays of strings
//	        Patterns: "record:", "invalid character"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Busy: Too many conversions in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many conversions"
//
//	REQ002 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	REQ003 - Request timeout: Request timed out
//	         Action: Try a smaller file or the streaming endpoint
//	         Patterns: "context deadline exceeded"
//
//	REQ004 - Rate limited: Too many requests
//	         Action: Please wait a moment before trying again
//	         Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Encoding Errors (ENC001-ENC004)
	// =========================================================================
	{
		pattern: "not encoded in utf-8",
		msg: UserMessage{
			Message: "File is not encoded in UTF-8",
			Action:  "Convert the file to UTF-8 (iconv, or save as UTF-8 in your editor)",
			Code:    "ENC001",
		},
	},
	{
		pattern: "double-encoded",
		msg: UserMessage{
			Message: "File contains double-encoded characters",
			Action:  "Re-export the file as UTF-8 from the original source",
			Code:    "ENC002",
		},
	},
	{
		pattern: "unsupported encoding",
		msg: UserMessage{
			Message: "The requested encoding is not supported",
			Action:  "Use UTF-8, UTF-16, Windows-1252, ISO-8859-1 or ISO-8859-15",
			Code:    "ENC003",
		},
	},
	{
		pattern: "invalid encoding detected",
		msg: UserMessage{
			Message: "A field is not valid in the expected encoding",
			Action:  "Fix the reported field or read with action \"fix\"",
			Code:    "ENC004",
		},
	},

	// =========================================================================
	// Configuration Errors (CFG001-CFG002)
	// =========================================================================
	{
		pattern: "configuration error",
		msg: UserMessage{
			Message: "A middleware option is invalid",
			Action:  "Check the pipeline definition",
			Code:    "CFG001",
		},
	},
	{
		pattern: "invalid dialect",
		msg: UserMessage{
			Message: "Delimiter, enclosure or line delimiter is invalid",
			Action:  "Use distinct single characters for delimiter and enclosure",
			Code:    "CFG002",
		},
	},

	// =========================================================================
	// File and Stream Errors (IO001-IO004)
	// =========================================================================
	{
		pattern: "io error",
		msg: UserMessage{
			Message: "The file could not be read or written",
			Action:  "Check the path and permissions",
			Code:    "IO001",
		},
	},
	{
		pattern: "invalid resource",
		msg: UserMessage{
			Message: "The output stream is not writable",
			Action:  "Pass an open, writable stream",
			Code:    "IO002",
		},
	},
	{
		pattern: "too large",
		msg: UserMessage{
			Message: "Input exceeds the maximum size",
			Action:  "Split the file or use the streaming endpoint",
			Code:    "IO003",
		},
	},
	{
		pattern: "record:",
		msg: UserMessage{
			Message: "Records could not be decoded",
			Action:  "Send a JSON array of objects or arrays of strings",
			Code:    "IO004",
		},
	},
	{
		pattern: "invalid character",
		msg: UserMessage{
			Message: "Records could not be decoded",
			Action:  "Send a JSON array of objects or arrays of strings",
			Code:    "IO004",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ004)
	// =========================================================================
	{
		pattern: "too many conversions",
		msg: UserMessage{
			Message: "System is busy processing other conversions",
			Action:  "Please wait a moment and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or the streaming endpoint",
			Code:    "REQ003",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "REQ004",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
