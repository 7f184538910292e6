// Package live keeps the set of open persistent client connections and
// routes alert frames to the connections of a given user.
//
// A connection starts unauthenticated. The client proves its identity by
// sending {"type":"AUTH","token":"..."} over the channel; on success the
// registry answers {"type":"AUTH_ACK"}, on failure it closes the channel
// with code 1008. Only authenticated connections receive
// {"type":"ALERT","payload":...} frames.
//
// Liveness is checked by a periodic sweep: a connection that has not
// answered the previous ping by the next sweep is terminated.
//
// Each connection owns a read pump and a write pump. All data writes go
// through the write pump; close and ping frames are sent with WriteControl,
// which gorilla/websocket allows concurrently with other writes.
package live
