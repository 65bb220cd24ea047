package msg

import (
	"testing"

	"icc.tech/msgcore/internal/mbuf"
)

func newMbufPool(t *testing.T) *mbuf.Pool {
	t.Helper()
	return mbuf.NewPool(256, 0, 0)
}
