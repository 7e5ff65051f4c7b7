package core

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// SessionID identifies one peer connection. Issued by the transport layer,
// opaque and stable for the connection's lifetime.
type SessionID string

// SignalConnection abstracts a peer's messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues a frame without blocking. It returns an error when
	// the connection is closed or its send buffer is full.
	TrySend(Frame) error
	Close()
}
