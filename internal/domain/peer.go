package domain

// Peer is one connected participant's identity within a room.
// The SID is issued by the transport layer and is stable for the
// lifetime of the connection.
type Peer struct {
	SID  string `json:"sid"`
	Name string `json:"name"`
}

// DisplayName falls back to a truncated form of the session id when the
// client did not supply a name.
func DisplayName(name, sid string) string {
	if name != "" {
		return name
	}
	short := sid
	if len(short) > 8 {
		short = short[:8]
	}
	return "User " + short
}
