// Package conn defines the connection capability the receive/send
// engines drive: a non-blocking byte source/sink plus the message
// queueing hooks (recv_next/send_next/recv_done/send_done) owned by
// upstream layers.
package conn

import (
	"errors"

	"icc.tech/msgcore/internal/msg"
)

// ErrAgain is the non-blocking-would-block sentinel returned by Recv
// and SendV; the engines treat it as a quiescent OK, not a failure.
var ErrAgain = errors.New("conn: would block")

// Role is the connection's position in the replication topology.
type Role int

const (
	RoleClient Role = iota
	RoleProxy
	RoleDnodeClient
	RoleDnodeServer
)

// Connection is the capability surface the receive/send engines need.
// Everything socket-specific (accept loops, TLS, real fds) lives
// outside this core; implementations only need to honor this
// contract.
type Connection interface {
	Mode() msg.Mode
	Redis() bool
	Role() Role

	RecvReady() bool
	SendReady() bool

	Err() error
	SetErr(error)

	SMsg() *msg.Msg
	SetSMsg(*msg.Msg)

	AESKey() []byte
	ServerTimeoutMS() int64

	// Recv performs one non-blocking read into buf, returning bytes
	// read. It returns (0, ErrAgain) when no data is currently
	// available and (n, err) with err != ErrAgain on fatal failure.
	Recv(buf []byte) (int, error)

	// SendV performs one non-blocking vectored write of iov, returning
	// total bytes written with the same ErrAgain convention as Recv.
	SendV(iov [][]byte) (int, error)

	// RecvNext returns the current inbound target message. If none
	// exists and newAlloc is true, a fresh message is allocated and
	// returned; eof reports whether the caller is asking at the top of
	// a connection-level recv (true) or mid parse-loop (false).
	RecvNext(eof bool, newAlloc bool) (*msg.Msg, error)

	// SendNext returns the next outbound message, or nil when the
	// send queue is empty.
	SendNext() *msg.Msg

	// RecvDone and SendDone are completion hooks: RecvDone reports a
	// fully- or partially-consumed inbound message plus its successor
	// fragment (nil if none); SendDone reports a fully-drained
	// outbound message.
	RecvDone(m, next *msg.Msg)
	SendDone(m *msg.Msg)
}
