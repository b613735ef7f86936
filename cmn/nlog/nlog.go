// Package nlog is wordstore's logger: timestamping, writing and flushing of
// the NM/SS append-only log files.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevText = [...]string{"INFO", "WARN", "ERROR"}

var (
	toStderr     bool
	alsoToStderr bool

	mu       sync.Mutex
	file     *os.File
	fileName string
)

// InitFlags registers the standard logtostderr/alsologtostderr flags.
func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", false, "log to standard error instead of the log file")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as the log file")
}

// SetLogDirRole opens (creating if needed) <dir>/<role>_log.txt as the
// destination log file. role is "nm" or "ss".
func SetLogDirRole(dir, role string) {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
	if toStderr {
		return
	}
	fileName = role + "_log.txt"
	if dir != "" {
		_ = os.MkdirAll(dir, 0o755)
		fileName = filepath.Join(dir, fileName)
	}
	f, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nlog: cannot open %s: %v\n", fileName, err)
		return
	}
	file = f
}

func timestamp() string { return time.Now().Format("2006-01-02 15:04:05") }

func log(sev severity, format string, args ...any) {
	var msg string
	if format == "" {
		msg = fmt.Sprintln(args...)
	} else {
		msg = fmt.Sprintf(format, args...)
		if len(msg) == 0 || msg[len(msg)-1] != '\n' {
			msg += "\n"
		}
	}
	line := fmt.Sprintf("[%s] [%s] %s", timestamp(), sevText[sev], msg)

	mu.Lock()
	defer mu.Unlock()
	if toStderr || file == nil || alsoToStderr || sev >= sevErr {
		os.Stderr.WriteString(line)
	}
	if file != nil && !toStderr {
		file.WriteString(line)
	}
}

func InfoDepth(_ int, args ...any)        { log(sevInfo, "", args...) }
func Infoln(args ...any)                  { log(sevInfo, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, format, args...) }
func Warningln(args ...any)               { log(sevWarn, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, format, args...) }
func ErrorDepth(_ int, args ...any)       { log(sevErr, "", args...) }
func Errorln(args ...any)                 { log(sevErr, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, format, args...) }

// Op writes a structured operation-audit line: one line per client
// operation, timestamped, with the requesting IP/port/user and outcome.
func Op(level, ip string, port int, user, op, details string) {
	line := fmt.Sprintf("[%s] [%s] IP=%s Port=%d User=%s Op=%s Details=%s\n",
		timestamp(), level, ip, port, user, op, details)
	mu.Lock()
	defer mu.Unlock()
	if toStderr || file == nil || alsoToStderr || level == "ERROR" {
		os.Stderr.WriteString(line)
	}
	if file != nil && !toStderr {
		file.WriteString(line)
	}
}

// Flush syncs the log file to disk; Flush(true) also closes it (shutdown).
func Flush(exit ...bool) {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return
	}
	file.Sync()
	if len(exit) > 0 && exit[0] {
		file.Close()
		file = nil
	}
}
