package msg

import "fmt"

// GetError synthesizes a wire-format error response message containing
// exactly one mbuf: for Redis, "-ERR <source> <reason>\r\n"; for
// Memcached, "SERVER_ERROR <source> <reason>\r\n". It force-allocates
// past the soft ceiling (mode is always treated as internal for this
// allocation) so error replies keep surfacing under memory pressure.
func (p *Pool) GetError(isRedis bool, source SourceKind, errno int) (*Msg, error) {
	m, err := p.forceGet()
	if err != nil {
		return nil, err
	}
	m.IsRequest = false
	m.Type = TypeServerError

	protstr := "SERVER_ERROR"
	if isRedis {
		protstr = "-ERR"
	}

	wire := fmt.Sprintf("%s %s %s\r\n", protstr, source.wireLabel(), reason(errno))

	b, err := p.mbufs.Get()
	if err != nil {
		p.Put(m)
		return nil, err
	}
	b.Copy([]byte(wire))
	m.Chain.Insert(b)
	m.MLen = len(wire)
	m.Pos = b

	return m, nil
}

// forceGet allocates bypassing the soft ceiling, used only by
// GetError: an error reply must be able to surface even when external
// allocation is refused, otherwise a client under backpressure never
// learns why its connection is about to close. The hard ceiling still
// applies — an error reply cannot grow live messages past MAX_ALLOC_MSGS.
func (p *Pool) forceGet() (*Msg, error) {
	if p.maxAlloc > 0 && p.allocated-p.nfree >= p.maxAlloc {
		return nil, ErrPoolExhausted
	}
	var m *Msg
	if p.free != nil {
		m = p.free
		p.free = m.poolNext
		m.poolNext = nil
		p.nfree--
	} else {
		m = &Msg{}
		p.allocated++
	}
	id := p.nextMsgID()
	*m = Msg{ID: id, Mode: ModeInternal}
	return m, nil
}
