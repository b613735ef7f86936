// Package cos provides common low-level types and utilities shared by the
// NM and SS.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"

	"github.com/wordstore/wordstore/cmn/nlog"
)

type (
	// ErrNotFound reports that a named thing does not exist. The NM and
	// SS lookups in this tree report misses with cmn.CodeError instead.
	ErrNotFound struct {
		what string
	}

	// Errs aggregates up to maxErrs distinct errors, for a caller that
	// keeps going and reports everything it hit at the end.
	Errs struct {
		errs []error
		mu   sync.Mutex
	}
)

func NewErrNotFound(format string, a ...any) *ErrNotFound {
	return &ErrNotFound{fmt.Sprintf(format, a...)}
}

func (e *ErrNotFound) Error() string { return e.what + " does not exist" }

func IsErrNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

const maxErrs = 8

func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
	}
}

func (e *Errs) Cnt() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs)
}

func (e *Errs) JoinErr() (cnt int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cnt = len(e.errs); cnt > 0 {
		err = errors.Join(e.errs...)
	}
	return
}

//
// connection-error classifiers; the NM<->SS channel does not call them
// and marks a storage server inactive on any forward error
//

func IsErrConnectionReset(err error) bool { return errors.Is(err, syscall.ECONNRESET) }
func IsErrConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
func IsErrBrokenPipe(err error) bool { return errors.Is(err, syscall.EPIPE) }

func IsRetriableConnErr(err error) bool {
	return IsErrConnectionRefused(err) || IsErrConnectionReset(err) || IsErrBrokenPipe(err)
}

func IsEOF(err error) bool {
	return err != nil && (errors.Is(err, os.ErrClosed) || errors.Is(err, net.ErrClosed))
}

//
// fatal startup helpers
//

const fatalPrefix = "FATAL ERROR: "

func ExitLogf(f string, a ...any) {
	msg := fmt.Sprintf(fatalPrefix+f, a...)
	nlog.ErrorDepth(1, msg)
	nlog.Flush(true)
	_exit(msg)
}

func ExitLog(a ...any) {
	msg := fatalPrefix + fmt.Sprint(a...)
	nlog.ErrorDepth(1, msg)
	nlog.Flush(true)
	_exit(msg)
}

func _exit(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
