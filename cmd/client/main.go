// Command client is a thin interactive REPL over the NM/SS wire protocols:
// register with the NM, send one command per line, and for the two
// commands the NM redirects (READ/STREAM and WRITE) follow the SS_INFO
// reply with a direct connection to the named storage server.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/wordstore/wordstore/wire"
)

func main() {
	nmAddr := flag.String("nm", "127.0.0.1:9000", "name server address")
	user := flag.String("user", "", "username to register as")
	flag.Parse()

	if *user == "" {
		fmt.Fprintln(os.Stderr, "client: -user is required")
		os.Exit(1)
	}

	nm, err := dial(*nmAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "client: connect %s: %v\n", *nmAddr, err)
		os.Exit(1)
	}
	defer nm.Close()

	if err := nm.WriteLine(fmt.Sprintf("REGISTER_CLIENT %s", *user)); err != nil {
		fmt.Fprintf(os.Stderr, "client: register: %v\n", err)
		os.Exit(1)
	}
	reply, err := nm.ReadLine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "client: register: %v\n", err)
		os.Exit(1)
	}
	printReply(reply)

	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		cmd := wire.ParseCommand(line)
		switch cmd.Name {
		case "READ", "STREAM", "WRITE":
			if err := runRedirected(nm, cmd, line); err != nil {
				fmt.Println(err)
			}
		default:
			if err := nm.WriteLine(line); err != nil {
				fmt.Fprintf(os.Stderr, "client: %v\n", err)
				return
			}
			reply, err := nm.ReadLine()
			if err != nil {
				fmt.Fprintf(os.Stderr, "client: %v\n", err)
				return
			}
			printReply(reply)
		}
	}
}

func dial(addr string) (*wire.Conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return wire.NewConn(c), nil
}

// runRedirected sends line to the NM, expects an "SS_INFO <ip> <port>"
// success reply, and for READ/STREAM opens a direct SS session to fetch
// the result; WRITE hands off to an interactive draft-edit sub-session.
func runRedirected(nm *wire.Conn, cmd wire.Command, line string) error {
	if err := nm.WriteLine(line); err != nil {
		return err
	}
	reply, err := nm.ReadLine()
	if err != nil {
		return err
	}
	code, msg, perr := wire.ParseReply(reply)
	if perr != nil {
		return perr
	}
	if code != 0 {
		return fmt.Errorf("%d:%s", code, msg)
	}
	fields := strings.Fields(msg)
	if len(fields) != 3 || fields[0] != "SS_INFO" {
		fmt.Println(msg)
		return nil
	}
	ssAddr := fields[1] + ":" + fields[2]
	ss, err := dial(ssAddr)
	if err != nil {
		return fmt.Errorf("connect storage server %s: %w", ssAddr, err)
	}
	defer ss.Close()

	switch cmd.Name {
	case "READ":
		return ssReadOnce(ss, "READ "+cmd.Arg(0))
	case "STREAM":
		return ssStream(ss, "STREAM "+cmd.Arg(0))
	case "WRITE":
		return ssWriteSession(ss, cmd)
	}
	return nil
}

func ssReadOnce(ss *wire.Conn, line string) error {
	if err := ss.WriteLine(line); err != nil {
		return err
	}
	reply, err := ss.ReadLine()
	if err != nil {
		return err
	}
	tag, payload := wire.ParseTag(reply)
	if tag == wire.TagError {
		return fmt.Errorf("%s", payload)
	}
	fmt.Println(payload)
	return nil
}

// ssStream prints each word line as it arrives until the SS sends TagStop.
func ssStream(ss *wire.Conn, line string) error {
	if err := ss.WriteLine(line); err != nil {
		return err
	}
	for {
		reply, err := ss.ReadLine()
		if err != nil {
			return nil
		}
		tag, payload := wire.ParseTag(reply)
		switch tag {
		case wire.TagStop:
			return nil
		case wire.TagError:
			return fmt.Errorf("%s", payload)
		default:
			fmt.Println(reply)
		}
	}
}

// ssWriteSession opens a draft-edit session: WRITE_LOCK, then reads
// "<word_index> <content>" lines from stdin until a bare ETIRW, committing
// the draft and releasing the lock.
func ssWriteSession(ss *wire.Conn, cmd wire.Command) error {
	idx := cmd.Arg(1)
	if _, err := strconv.Atoi(idx); err != nil {
		return fmt.Errorf("usage: WRITE <file> <sentence_index>")
	}
	if err := ss.WriteLine(fmt.Sprintf("WRITE_LOCK %s %s", cmd.Arg(0), idx)); err != nil {
		return err
	}
	reply, err := ss.ReadLine()
	if err != nil {
		return err
	}
	if tag, payload := wire.ParseTag(reply); tag != wire.TagLocked {
		return fmt.Errorf("%s", payload)
	}
	fmt.Println("sentence locked; enter \"<word_index> <content>\" edits, ETIRW to commit")

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		draftLine := strings.TrimSpace(in.Text())
		if draftLine == "" {
			continue
		}
		if err := ss.WriteLine(draftLine); err != nil {
			return err
		}
		reply, err := ss.ReadLine()
		if err != nil {
			return err
		}
		tag, payload := wire.ParseTag(reply)
		if tag == wire.TagError {
			fmt.Println(payload)
			continue
		}
		if strings.EqualFold(draftLine, "ETIRW") {
			fmt.Println("committed")
			if err := ss.WriteLine(fmt.Sprintf("WRITE_UNLOCK %s %s", cmd.Arg(0), idx)); err != nil {
				return err
			}
			if _, err := ss.ReadLine(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}

func printReply(line string) {
	code, msg, err := wire.ParseReply(line)
	if err != nil {
		fmt.Println(line)
		return
	}
	if code == 0 {
		fmt.Println(msg)
		return
	}
	fmt.Printf("error %d: %s\n", code, msg)
}
