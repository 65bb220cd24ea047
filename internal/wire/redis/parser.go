// Package redis implements a minimal-but-real RESP array-family
// parser: enough of the grammar to drive the datapath's
// parse/fragment/repair state machine for a small verb table. Wire
// grammars are pluggable here; full protocol compliance is out of
// scope.
package redis

import (
	"bytes"
	"fmt"
	"strconv"

	"icc.tech/msgcore/internal/mbuf"
	"icc.tech/msgcore/internal/msg"
)

// Verb is the small command set this parser recognizes.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbGet
	VerbSet
	VerbDel
	VerbMGet
	VerbPing
)

func verbFromToken(tok []byte) Verb {
	switch {
	case bytes.EqualFold(tok, []byte("get")):
		return VerbGet
	case bytes.EqualFold(tok, []byte("set")):
		return VerbSet
	case bytes.EqualFold(tok, []byte("del")):
		return VerbDel
	case bytes.EqualFold(tok, []byte("mget")):
		return VerbMGet
	case bytes.EqualFold(tok, []byte("ping")):
		return VerbPing
	default:
		return VerbUnknown
	}
}

// token is one parsed RESP bulk string: its byte range within the
// mbuf being scanned.
type token struct {
	start, end int // offsets into buf
}

// scanArray reads a full "*N\r\n($len\r\nbytes\r\n){N}" array starting
// at offset `from` in buf[:last]. It returns the parsed tokens, the
// offset one past the full array, complete=false if the buffer doesn't
// yet hold a complete array (caller should return ResultAgain), and
// malformed=true on a true parse failure (caller should return
// ResultError).
func scanArray(buf []byte, from, last int) (toks []token, end int, complete bool, malformed bool) {
	p := from
	if p >= last || buf[p] != '*' {
		return nil, 0, false, true
	}
	p++
	nStart := p
	for p < last && buf[p] != '\r' {
		p++
	}
	if p >= last || p+1 >= last {
		return nil, 0, false, false
	}
	n, err := strconv.Atoi(string(buf[nStart:p]))
	if err != nil || n < 0 {
		return nil, 0, false, true
	}
	p += 2 // skip \r\n

	toks = make([]token, 0, n)
	for i := 0; i < n; i++ {
		if p >= last || buf[p] != '$' {
			if p >= last {
				return nil, 0, false, false
			}
			return nil, 0, false, true
		}
		p++
		lenStart := p
		for p < last && buf[p] != '\r' {
			p++
		}
		if p >= last || p+1 >= last {
			return nil, 0, false, false
		}
		blen, err := strconv.Atoi(string(buf[lenStart:p]))
		if err != nil || blen < 0 {
			return nil, 0, false, true
		}
		p += 2
		if p+blen+2 > last {
			return nil, 0, false, false
		}
		toks = append(toks, token{start: p, end: p + blen})
		p += blen + 2
	}
	return toks, p, true, false
}

// stateFragmentingMGet marks a message (via m.State) as mid-way
// through fragmenting a multi-key mget, one key at a time.
const stateFragmentingMGet = 1

// ParseRequest implements msg.ParseFunc for Redis requests (dispatch
// variant RedisReq). A single-key command parses to completion
// (ResultOK). A multi-key `mget` consumes only its first key and returns
// ResultFragment; the fragmentation engine re-synthesizes the
// remaining keys as a fresh standalone command (see SplitHooks) and
// this same parser runs again on that fragment, so an N-key mget
// yields exactly N fragments.
func ParseRequest(m *msg.Msg) msg.Result {
	tail := m.Chain.Tail()
	if tail == nil {
		return msg.ResultAgain
	}
	buf := tail.Bytes()
	from := tail.Start()
	last := tail.Last()

	toks, end, complete, malformed := scanArray(buf, from, last)
	if malformed {
		return msg.ResultError
	}
	if !complete {
		return msg.ResultAgain
	}
	if len(toks) == 0 {
		return msg.ResultError
	}

	verb := verbFromToken(buf[toks[0].start:toks[0].end])
	m.Type = msg.TypeReq

	switch verb {
	case VerbPing:
		m.IsRead = true
		tail.SetPos(end)
		m.Done = true
		return msg.ResultOK

	case VerbGet, VerbDel, VerbSet:
		if len(toks) < 2 {
			return msg.ResultError
		}
		m.IsRead = verb == VerbGet
		m.KeyStart = toks[1].start
		m.KeyEnd = toks[1].end
		tail.SetPos(end)
		m.Done = true
		return msg.ResultOK

	case VerbMGet:
		if len(toks) < 2 {
			return msg.ResultError
		}
		m.IsRead = true
		m.KeyStart = toks[1].start
		m.KeyEnd = toks[1].end

		if len(toks) == 2 {
			// Single key left: behaves like a plain get.
			tail.SetPos(end)
			m.Done = true
			return msg.ResultOK
		}

		// More keys remain: this message keeps only the first key;
		// the rest (tokens[2:]) are fragmented off starting at their
		// own "$len" header, so the split point is just past key[1]'s
		// trailing CRLF. RNArg
		// stashes how many keys remain, so preSplitCopy can restate an
		// accurate array arity for the re-synthesized command.
		m.State = stateFragmentingMGet
		m.RNArg = len(toks) - 2
		tail.SetPos(toks[1].end + 2)
		return msg.ResultFragment

	default:
		return msg.ResultError
	}
}

// ParseResponse implements msg.ParseFunc for Redis responses: a
// minimal subset of `+OK\r\n`, `-ERR ...\r\n`, and `$len\r\nbytes\r\n`
// (or `$-1\r\n` for a nil bulk reply).
func ParseResponse(m *msg.Msg) msg.Result {
	tail := m.Chain.Tail()
	if tail == nil {
		return msg.ResultAgain
	}
	buf := tail.Bytes()
	from := tail.Start()
	last := tail.Last()
	if from >= last {
		return msg.ResultAgain
	}

	crlf := bytes.Index(buf[from:last], []byte("\r\n"))
	switch buf[from] {
	case '+', '-':
		if crlf < 0 {
			return msg.ResultAgain
		}
		if buf[from] == '-' {
			m.Error = true
			m.Type = msg.TypeRspError
		} else {
			m.Type = msg.TypeRspOK
		}
		tail.SetPos(from + crlf + 2)
		m.Done = true
		return msg.ResultOK
	case '$':
		if crlf < 0 {
			return msg.ResultAgain
		}
		n, err := strconv.Atoi(string(buf[from+1 : from+crlf]))
		if err != nil {
			return msg.ResultError
		}
		if n < 0 {
			tail.SetPos(from + crlf + 2)
			m.Done = true
			return msg.ResultOK
		}
		end := from + crlf + 2 + n + 2
		if end > last {
			return msg.ResultAgain
		}
		tail.SetPos(end)
		m.Type = msg.TypeRspOK
		m.Done = true
		return msg.ResultOK
	default:
		return msg.ResultError
	}
}

// SplitHooks returns the pre/post split-copy pair bound to the Redis
// dialect's dispatch table entry.
func SplitHooks() (msg.PreSplitCopyFunc, msg.SplitCopyFunc) {
	return preSplitCopy, postSplitCopy
}

// preSplitCopy synthesizes a standalone command header for the tail
// buffer before the fragmentation engine moves the remaining mget
// keys into it: "*<n+1>\r\n$4\r\nmget\r\n" followed by the split raw
// key bytes that Split() copies in right after. Re-stating `mget`
// (rather than `get`) lets the same ParseRequest function recurse: if
// more than one key remains it fragments again, otherwise it finishes
// as a plain single-key read.
func preSplitCopy(tail *mbuf.Mbuf, m *msg.Msg) error {
	if m.State != stateFragmentingMGet {
		return nil
	}
	header := fmt.Sprintf("*%d\r\n$4\r\nmget\r\n", m.RNArg+1)
	tail.Copy([]byte(header))
	return nil
}

// postSplitCopy patches the retained head's classification to reflect
// that it now represents a single-key `get`-equivalent fragment.
// Rewriting the literal RESP arity bytes of the already-sent prefix is
// a wire-format detail of the concrete dialect and is out of scope;
// the core only needs the classification fields (Type, IsRead,
// KeyStart/KeyEnd) to be correct for routing and fan-in.
func postSplitCopy(m *msg.Msg) error {
	if m.State != stateFragmentingMGet {
		return nil
	}
	m.Type = msg.TypeReq
	m.IsRead = true
	m.Done = true
	m.State = 0
	return nil
}
