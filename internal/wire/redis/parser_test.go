package redis

import (
	"testing"

	"icc.tech/msgcore/internal/mbuf"
	"icc.tech/msgcore/internal/msg"
)

func newMsgWithBytes(t *testing.T, pool *mbuf.Pool, data string) *msg.Msg {
	t.Helper()
	m := &msg.Msg{IsRequest: true, Dialect: msg.DialectRedis}
	b, err := pool.Get()
	if err != nil {
		t.Fatalf("mbuf get: %v", err)
	}
	b.Copy([]byte(data))
	m.Chain.Insert(b)
	m.Pos = b
	return m
}

func TestParseSingleGet(t *testing.T) {
	pool := mbuf.NewPool(256, 0, 0)
	m := newMsgWithBytes(t, pool, "*2\r\n$3\r\nget\r\n$3\r\nfoo\r\n")

	if res := ParseRequest(m); res != msg.ResultOK {
		t.Fatalf("expected OK, got %v", res)
	}
	if !m.Done || !m.IsRead {
		t.Fatalf("expected done+read, got %+v", m)
	}
	key := m.Chain.Tail().Bytes()[m.KeyStart:m.KeyEnd]
	if string(key) != "foo" {
		t.Fatalf("expected key foo, got %q", key)
	}
}

func TestParsePing(t *testing.T) {
	pool := mbuf.NewPool(256, 0, 0)
	m := newMsgWithBytes(t, pool, "*1\r\n$4\r\nping\r\n")
	if res := ParseRequest(m); res != msg.ResultOK {
		t.Fatalf("expected OK, got %v", res)
	}
}

func TestParseIncompleteArray(t *testing.T) {
	pool := mbuf.NewPool(256, 0, 0)
	m := newMsgWithBytes(t, pool, "*2\r\n$3\r\nget\r\n$3\r\nfo")
	if res := ParseRequest(m); res != msg.ResultAgain {
		t.Fatalf("expected AGAIN, got %v", res)
	}
}

func TestParseMalformed(t *testing.T) {
	pool := mbuf.NewPool(256, 0, 0)
	m := newMsgWithBytes(t, pool, "garbage\r\n")
	if res := ParseRequest(m); res != msg.ResultError {
		t.Fatalf("expected ERROR, got %v", res)
	}
}

// TestMGetFragmentsOneKeyAtATime exercises the three-key mget scenario:
// each parse+split cycle peels off one key, re-synthesizing the
// remainder as a standalone mget via the split hooks, until a single
// key remains and the final fragment completes as a plain get.
func TestMGetFragmentsOneKeyAtATime(t *testing.T) {
	pool := mbuf.NewPool(256, 0, 0)
	m := newMsgWithBytes(t, pool, "*4\r\n$4\r\nmget\r\n$4\r\nkey1\r\n$4\r\nkey2\r\n$4\r\nkey3\r\n")

	res := ParseRequest(m)
	if res != msg.ResultFragment {
		t.Fatalf("expected FRAGMENT on first parse, got %v", res)
	}
	tail := m.Chain.Tail()
	splitPoint := tail.Pos()

	preSplit, postSplit := SplitHooks()
	newTail, err := mbuf.Split(&m.Chain, tail, splitPoint, func(t *mbuf.Mbuf) error {
		return preSplit(t, m)
	}, pool)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if err := postSplit(m); err != nil {
		t.Fatalf("postSplit: %v", err)
	}
	if !m.Done || !m.IsRead {
		t.Fatalf("expected first fragment done+read, got %+v", m)
	}
	firstKey := tail.Bytes()[m.KeyStart:m.KeyEnd]
	if string(firstKey) != "key1" {
		t.Fatalf("expected key1, got %q", firstKey)
	}

	// Second fragment: new message wrapping newTail, re-parsed.
	m2 := &msg.Msg{IsRequest: true, Dialect: msg.DialectRedis, State: 0}
	m2.Chain.Insert(newTail)
	res2 := ParseRequest(m2)
	if res2 != msg.ResultFragment {
		t.Fatalf("expected FRAGMENT on second parse, got %v", res2)
	}
	splitPoint2 := newTail.Pos()
	newTail2, err := mbuf.Split(&m2.Chain, newTail, splitPoint2, func(t *mbuf.Mbuf) error {
		return preSplit(t, m2)
	}, pool)
	if err != nil {
		t.Fatalf("split2: %v", err)
	}
	if err := postSplit(m2); err != nil {
		t.Fatalf("postSplit2: %v", err)
	}
	secondKey := newTail.Bytes()[m2.KeyStart:m2.KeyEnd]
	if string(secondKey) != "key2" {
		t.Fatalf("expected key2, got %q", secondKey)
	}

	// Third: only one key left, completes as a plain get.
	m3 := &msg.Msg{IsRequest: true, Dialect: msg.DialectRedis}
	m3.Chain.Insert(newTail2)
	res3 := ParseRequest(m3)
	if res3 != msg.ResultOK {
		t.Fatalf("expected OK on final fragment, got %v", res3)
	}
	thirdKey := newTail2.Bytes()[m3.KeyStart:m3.KeyEnd]
	if string(thirdKey) != "key3" {
		t.Fatalf("expected key3, got %q", thirdKey)
	}
}

func TestParseResponseSimpleString(t *testing.T) {
	pool := mbuf.NewPool(256, 0, 0)
	m := newMsgWithBytes(t, pool, "+OK\r\n")
	if res := ParseResponse(m); res != msg.ResultOK {
		t.Fatalf("expected OK, got %v", res)
	}
	if m.Type != msg.TypeRspOK {
		t.Fatalf("expected RspOK type, got %v", m.Type)
	}
}

func TestParseResponseError(t *testing.T) {
	pool := mbuf.NewPool(256, 0, 0)
	m := newMsgWithBytes(t, pool, "-ERR bad\r\n")
	if res := ParseResponse(m); res != msg.ResultOK {
		t.Fatalf("expected OK, got %v", res)
	}
	if !m.Error || m.Type != msg.TypeRspError {
		t.Fatalf("expected error response, got %+v", m)
	}
}

func TestParseResponseBulkNil(t *testing.T) {
	pool := mbuf.NewPool(256, 0, 0)
	m := newMsgWithBytes(t, pool, "$-1\r\n")
	if res := ParseResponse(m); res != msg.ResultOK {
		t.Fatalf("expected OK, got %v", res)
	}
}

func TestParseResponseBulkIncomplete(t *testing.T) {
	pool := mbuf.NewPool(256, 0, 0)
	m := newMsgWithBytes(t, pool, "$5\r\nhel")
	if res := ParseResponse(m); res != msg.ResultAgain {
		t.Fatalf("expected AGAIN, got %v", res)
	}
}
