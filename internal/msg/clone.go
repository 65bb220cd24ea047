package msg

import "icc.tech/msgcore/internal/mbuf"

// Clone copies src's metadata (owner, parser callbacks, classification,
// flags) and deep-copies its buffer chain beginning at mbufStart (the
// first mbuf in src.Chain equal to that pointer) into a fresh message
// allocated from the pool. The clone owns independent mbufs; releasing
// either message never affects the other. Clone releases any buffers
// it has already acquired before returning an error, so a failure
// never leaves a half-built clone in the pool's live set.
func (p *Pool) Clone(src *Msg, mbufStart *mbuf.Mbuf, dispatch Dispatch) (*Msg, error) {
	dst, err := p.Get(src.IsRequest, src.Dialect == DialectRedis, src.Mode, dispatch)
	if err != nil {
		return nil, err
	}

	dst.Type = src.Type
	dst.IsRead = src.IsRead
	dst.KeyStart = src.KeyStart
	dst.KeyEnd = src.KeyEnd
	dst.VLen = src.VLen
	dst.Done = src.Done
	dst.Error = src.Error
	dst.Err = src.Err
	dst.Swallow = src.Swallow
	dst.NoReply = src.NoReply
	dst.Quit = src.Quit
	dst.Owner = src.Owner
	dst.Parser = src.Parser
	dst.PreSplit = src.PreSplit
	dst.PostSplit = src.PostSplit
	dst.PreCoalesce = src.PreCoalesce
	dst.PostCoalesce = src.PostCoalesce

	started := false
	for b := src.Chain.Head(); b != nil; b = b.Next() {
		if !started {
			if b != mbufStart {
				continue
			}
			started = true
		}

		nb, err := p.mbufs.Get()
		if err != nil {
			p.Put(dst)
			return nil, err
		}
		nb.Copy(b.Written())
		dst.Chain.Insert(nb)
		dst.MLen += nb.Length()
	}
	dst.Pos = dst.Chain.Tail()

	return dst, nil
}
