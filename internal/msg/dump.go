package msg

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Dump renders a diagnostic hex dump of m: one line of metadata
// followed by a hex block per mbuf.
func (m *Msg) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "msg id %d request %t len %d type %d done %t error %t (err %v)\n",
		m.ID, m.IsRequest, m.MLen, m.Type, m.Done, m.Error, m.Err)

	for buf := m.Chain.Head(); buf != nil; buf = buf.Next() {
		data := buf.Written()
		fmt.Fprintf(&b, "mbuf with %d bytes of data\n%s\n", len(data), hex.Dump(data))
	}
	return b.String()
}
