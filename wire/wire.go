// Package wire implements the line-oriented framing shared by the NM and SS
// protocols: a buffered line reader/writer plus the two response frame
// shapes -- "<code>:<message>\n" on the NM side and "TAG[:payload]\n" on
// the SS side.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package wire

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/wordstore/wordstore/cmn"
)

// Conn wraps a net.Conn with a buffered line reader, used identically by
// NM and SS connection workers and by the client side of both.
type Conn struct {
	net.Conn
	r *bufio.Reader
}

func NewConn(c net.Conn) *Conn {
	return &Conn{Conn: c, r: bufio.NewReaderSize(c, 4096)}
}

// ReadLine reads one newline-terminated frame, trimming the trailing CR/LF.
func (c *Conn) ReadLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine writes s plus a trailing newline.
func (c *Conn) WriteLine(s string) error {
	_, err := c.Conn.Write([]byte(s + "\n"))
	return err
}

// Command is one parsed request line: the first whitespace-delimited token
// is Name, the remaining tokens are whitespace-separated Args.
type Command struct {
	Name string
	Args []string
}

func ParseCommand(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}
	}
	return Command{Name: strings.ToUpper(fields[0]), Args: fields[1:]}
}

func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

func (c Command) NArgs() int { return len(c.Args) }

// Rest rejoins Args[from:] with single spaces, used for commands whose
// trailing argument is free text (e.g. WRITE session word content).
func (c Command) Rest(from int) string {
	if from >= len(c.Args) {
		return ""
	}
	return strings.Join(c.Args[from:], " ")
}

//
// NM-side response frame: "<code>:<message>\n"
//

func WriteReply(c *Conn, code cmn.ErrorCode, format string, a ...any) error {
	msg := format
	if len(a) > 0 {
		msg = fmt.Sprintf(format, a...)
	}
	msg = strings.ReplaceAll(msg, "\n", "\\n")
	return c.WriteLine(fmt.Sprintf("%d:%s", int(code), msg))
}

func WriteOK(c *Conn, format string, a ...any) error {
	return WriteReply(c, cmn.Success, format, a...)
}

func WriteErr(c *Conn, err error) error {
	if ce, ok := err.(*cmn.CodeError); ok {
		return WriteReply(c, ce.Code, ce.Message)
	}
	return WriteReply(c, cmn.ErrSystem, err.Error())
}

// ParseReply parses a "<code>:<message>" frame, as read by a client.
func ParseReply(line string) (code cmn.ErrorCode, msg string, err error) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return 0, "", fmt.Errorf("malformed reply: %q", line)
	}
	n, cerr := strconv.Atoi(line[:idx])
	if cerr != nil {
		return 0, "", fmt.Errorf("malformed reply code: %q", line)
	}
	return cmn.ErrorCode(n), line[idx+1:], nil
}

//
// SS-side response frame: "TAG[:payload]\n"
//

const (
	TagSuccess = "SUCCESS"
	TagLocked  = "LOCKED"
	TagUnlock  = "UNLOCKED"
	TagError   = "ERROR"
	TagStop    = "STOP"
)

func WriteTag(c *Conn, tag string) error { return c.WriteLine(tag) }

func WriteTagPayload(c *Conn, tag, payload string) error {
	return c.WriteLine(tag + ":" + payload)
}

func WriteSSError(c *Conn, format string, a ...any) error {
	msg := format
	if len(a) > 0 {
		msg = fmt.Sprintf(format, a...)
	}
	msg = strings.ReplaceAll(msg, "\n", "\\n")
	return WriteTagPayload(c, TagError, msg)
}

// ParseTag splits a "TAG[:payload]" frame.
func ParseTag(line string) (tag, payload string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}
