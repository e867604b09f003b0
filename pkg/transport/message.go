package transport

// ReceivedMessage is one inbound datagram handed up from a transport
// implementation to its registered MessageHandler. Data is the still-framed
// wire payload (packet header, payload header/ciphertext, MIC) exactly as
// read off the socket or test bridge — the transport layer never parses it.
type ReceivedMessage struct {
	// Data holds the raw datagram bytes.
	Data []byte
	// PeerAddr identifies where the datagram came from.
	PeerAddr PeerAddress
}

// MessageHandler receives every datagram a transport reads. The session
// manager installs the only handler in practice, via SetHandler, and must
// not block in it for long: a slow handler stalls the transport's read
// loop for every peer sharing that transport.
type MessageHandler func(msg *ReceivedMessage)
