// Package memcache implements a minimal text-protocol parser: the
// line-oriented get/set/delete/quit subset, enough to drive the
// datapath's AGAIN/boundary behavior for pipelined and partial reads.
package memcache

import (
	"bytes"
	"strconv"

	"icc.tech/msgcore/internal/mbuf"
	"icc.tech/msgcore/internal/msg"
)

const (
	stateLine = iota
	statePayload
)

// ParseRequest implements msg.ParseFunc for the memcache text
// protocol. It re-scans the command line from the start of the tail
// mbuf on every call rather than keeping lexer state across AGAIN
// calls; the only state carried across calls is a set-family
// command's payload position (State/RLen) once its line has parsed.
// The datapath only ever calls the parser on a tail mbuf that begins
// with the currently-unparsed command, so the rescan cost is bounded
// by one command's worth of bytes.
func ParseRequest(m *msg.Msg) msg.Result {
	tail := m.Chain.Tail()
	if tail == nil {
		return msg.ResultAgain
	}
	buf := tail.Bytes()

	if m.State == statePayload {
		return parsePayload(m, tail, buf)
	}
	return parseLine(m, tail, buf)
}

func parseLine(m *msg.Msg, tail interface {
	Start() int
	Last() int
	SetPos(int)
}, buf []byte) msg.Result {
	from := tail.Start()
	last := tail.Last()
	rel := bytes.Index(buf[from:last], []byte("\r\n"))
	if rel < 0 {
		return msg.ResultAgain
	}
	lineEnd := from + rel
	fields := bytes.Fields(buf[from:lineEnd])
	if len(fields) == 0 {
		return msg.ResultError
	}

	verb := string(fields[0])
	m.Type = msg.TypeReq

	switch verb {
	case "get", "gets":
		if len(fields) < 2 {
			return msg.ResultError
		}
		keyOff := from + bytes.Index(buf[from:lineEnd], fields[1])
		m.IsRead = true
		m.KeyStart = keyOff
		m.KeyEnd = keyOff + len(fields[1])
		tail.SetPos(lineEnd + 2)
		m.Done = true
		return msg.ResultOK

	case "delete":
		if len(fields) < 2 {
			return msg.ResultError
		}
		keyOff := from + bytes.Index(buf[from:lineEnd], fields[1])
		m.IsRead = false
		m.KeyStart = keyOff
		m.KeyEnd = keyOff + len(fields[1])
		tail.SetPos(lineEnd + 2)
		m.Done = true
		return msg.ResultOK

	case "quit":
		m.Quit = true
		tail.SetPos(lineEnd + 2)
		m.Done = true
		return msg.ResultOK

	case "set", "add", "replace":
		// set <key> <flags> <exptime> <bytes> [noreply]\r\n<data>\r\n
		if len(fields) < 5 {
			return msg.ResultError
		}
		n, err := strconv.Atoi(string(fields[4]))
		if err != nil || n < 0 {
			return msg.ResultError
		}
		keyOff := from + bytes.Index(buf[from:lineEnd], fields[1])
		m.IsRead = false
		m.KeyStart = keyOff
		m.KeyEnd = keyOff + len(fields[1])
		m.VLen = n
		if len(fields) >= 6 && string(fields[5]) == "noreply" {
			m.NoReply = true
		}
		m.RLen = lineEnd + 2 // payload starts here
		m.State = statePayload
		return parsePayload(m, tail, buf)

	default:
		return msg.ResultError
	}
}

func parsePayload(m *msg.Msg, tail interface {
	Last() int
	SetPos(int)
}, buf []byte) msg.Result {
	need := m.RLen + m.VLen + 2
	if tail.Last() < need {
		return msg.ResultAgain
	}
	if !bytes.Equal(buf[m.RLen+m.VLen:need], []byte("\r\n")) {
		return msg.ResultError
	}
	tail.SetPos(need)
	m.State = stateLine
	m.Done = true
	return msg.ResultOK
}

// ParseResponse implements msg.ParseFunc for memcache responses: the
// line replies (STORED/DELETED/NOT_FOUND/END/ERROR/...) plus the
// VALUE <key> <flags> <bytes>\r\n<data>\r\nEND\r\n block.
func ParseResponse(m *msg.Msg) msg.Result {
	tail := m.Chain.Tail()
	if tail == nil {
		return msg.ResultAgain
	}
	buf := tail.Bytes()
	from := tail.Start()
	last := tail.Last()
	rel := bytes.Index(buf[from:last], []byte("\r\n"))
	if rel < 0 {
		return msg.ResultAgain
	}
	lineEnd := from + rel
	fields := bytes.Fields(buf[from:lineEnd])
	if len(fields) == 0 {
		return msg.ResultError
	}

	switch string(fields[0]) {
	case "VALUE":
		if len(fields) < 4 {
			return msg.ResultError
		}
		n, err := strconv.Atoi(string(fields[3]))
		if err != nil || n < 0 {
			return msg.ResultError
		}
		dataStart := lineEnd + 2
		endLine := []byte("END\r\n")
		need := dataStart + n + 2 + len(endLine)
		if last < need {
			return msg.ResultAgain
		}
		if !bytes.Equal(buf[dataStart+n:dataStart+n+2], []byte("\r\n")) {
			return msg.ResultError
		}
		if !bytes.Equal(buf[dataStart+n+2:need], endLine) {
			return msg.ResultError
		}
		tail.SetPos(need)
		m.Type = msg.TypeRspOK
		m.Done = true
		return msg.ResultOK

	case "STORED", "NOT_STORED", "DELETED", "NOT_FOUND", "END", "OK":
		tail.SetPos(lineEnd + 2)
		m.Type = msg.TypeRspOK
		m.Done = true
		return msg.ResultOK

	case "ERROR", "CLIENT_ERROR", "SERVER_ERROR":
		tail.SetPos(lineEnd + 2)
		m.Type = msg.TypeRspError
		m.Error = true
		m.Done = true
		return msg.ResultOK

	default:
		return msg.ResultError
	}
}

// SplitHooks returns the pre/post split-copy pair bound to the
// memcache dialect's dispatch table entry. The text protocol is
// already self-delimited line-by-line, so fragmentation never needs
// to synthesize a header; both hooks are no-ops.
func SplitHooks() (msg.PreSplitCopyFunc, msg.SplitCopyFunc) {
	pre := func(*mbuf.Mbuf, *msg.Msg) error { return nil }
	post := func(*msg.Msg) error { return nil }
	return pre, post
}
