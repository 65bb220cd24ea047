// Package peer implements the dialect-agnostic internal-mode parser:
// replication traffic between nodes is framed by the envelope
// (BitField/Plen) rather than a request/response grammar, so this
// parser only recognizes "all currently buffered bytes form one
// complete unit" and leaves deeper interpretation to the outer
// envelope layer.
package peer

import "icc.tech/msgcore/internal/msg"

// ParseRequest implements msg.ParseFunc for internal-mode requests.
func ParseRequest(m *msg.Msg) msg.Result { return parse(m) }

// ParseResponse implements msg.ParseFunc for internal-mode responses.
func ParseResponse(m *msg.Msg) msg.Result { return parse(m) }

func parse(m *msg.Msg) msg.Result {
	tail := m.Chain.Tail()
	if tail == nil || tail.Pos() >= tail.Last() {
		return msg.ResultAgain
	}
	tail.SetPos(tail.Last())
	m.Done = true
	return msg.ResultOK
}
