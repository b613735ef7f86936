// Package cmn holds types and constants shared by the NM and SS: the wire
// error taxonomy and the CodeError type that carries it.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import "fmt"

// ErrorCode is the uniform NM/SS error taxonomy: the one place where a
// wire code, its string rendering, and a Go error meet.
type ErrorCode int

const (
	Success ErrorCode = iota
	ErrFileNotFound
	ErrUnauthorized
	ErrFileExists
	ErrFileLocked
	ErrSSNotFound
	ErrClientNotFound
	ErrInvalidOperation
	ErrSSDisconnected
	ErrPermissionDenied
	ErrInvalidSentence
)

// ErrSystem is intentionally out of the contiguous 0-10 run.
const ErrSystem ErrorCode = 99

var codeText = map[ErrorCode]string{
	Success:             "SUCCESS",
	ErrFileNotFound:     "FILE_NOT_FOUND",
	ErrUnauthorized:     "UNAUTHORIZED",
	ErrFileExists:       "FILE_EXISTS",
	ErrFileLocked:       "FILE_LOCKED",
	ErrSSNotFound:       "SS_NOT_FOUND",
	ErrClientNotFound:   "CLIENT_NOT_FOUND",
	ErrInvalidOperation: "INVALID_OPERATION",
	ErrSSDisconnected:   "SS_DISCONNECTED",
	ErrPermissionDenied: "PERMISSION_DENIED",
	ErrInvalidSentence:  "INVALID_SENTENCE",
	ErrSystem:           "SYSTEM_ERROR",
}

func (c ErrorCode) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return "UNKNOWN_ERROR"
}

// CodeError is the Go error wrapping one ErrorCode plus a human message,
// returned by every NM/SS handler. The wire codec renders it as
// "<code>:<message>\n".
type CodeError struct {
	Code    ErrorCode
	Message string
}

func (e *CodeError) Error() string { return e.Code.String() + ": " + e.Message }

func NewCodeError(code ErrorCode, format string, a ...any) *CodeError {
	if len(a) == 0 {
		return &CodeError{Code: code, Message: format}
	}
	return &CodeError{Code: code, Message: fmt.Sprintf(format, a...)}
}
