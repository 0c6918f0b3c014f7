// Package game implements the Game service: the per-age-instance host
// goroutine that owns its clients and game state, and the per-connection
// worker that feeds it.
package game

// Host message tags.
const (
	TagShutdown int32 = iota
	TagCleanup
	TagJoinAge
	TagPropagate
	TagDisconnect
)

// ClientMessage is the common host request: the client it concerns. Replies
// go to the client's private channel, exactly one per request.
type ClientMessage struct {
	Client *Client
}

// PropagateMessage carries one raw net message buffer from a client.
type PropagateMessage struct {
	ClientMessage
	MsgType uint32
	Data    []byte
}

func (m *ClientMessage) reply(result int32) {
	m.Client.reply.Put(result, nil)
}
