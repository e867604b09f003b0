package transport

import (
	"fmt"
	"net"
)

// PeerAddress identifies a remote peer by network address and transport type.
type PeerAddress struct {
	// Addr is the network address of the peer.
	Addr net.Addr
	// TransportType identifies the transport protocol (Undefined, UDP, TCP
	// or BLE).
	TransportType TransportType
}

// String returns a human-readable representation of the peer address.
func (p PeerAddress) String() string {
	if p.Addr == nil {
		return fmt.Sprintf("%s:<nil>", p.TransportType)
	}
	return fmt.Sprintf("%s:%s", p.TransportType, p.Addr.String())
}

// IsValid returns true if the peer address has a valid transport type and address.
func (p PeerAddress) IsValid() bool {
	return p.TransportType.IsValid() && p.Addr != nil
}

// NewUDPPeerAddress creates a PeerAddress for a UDP peer.
func NewUDPPeerAddress(addr net.Addr) PeerAddress {
	return PeerAddress{
		Addr:          addr,
		TransportType: TransportTypeUDP,
	}
}

// NewTCPPeerAddress creates a PeerAddress for a TCP peer.
func NewTCPPeerAddress(addr net.Addr) PeerAddress {
	return PeerAddress{
		Addr:          addr,
		TransportType: TransportTypeTCP,
	}
}

// bleAddr is a net.Addr wrapper for Bluetooth LE peer identifiers (e.g. a
// device address string). The session manager never dials BLE itself; this
// exists so a PeerAddress produced by a BLE pairing can still satisfy
// net.Addr and flow through the same PeerAddress type as UDP/TCP.
type bleAddr string

func (a bleAddr) Network() string { return "ble" }
func (a bleAddr) String() string  { return string(a) }

// NewBLEPeerAddress creates a PeerAddress for a peer reached over BLE.
func NewBLEPeerAddress(deviceAddr string) PeerAddress {
	return PeerAddress{
		Addr:          bleAddr(deviceAddr),
		TransportType: TransportTypeBLE,
	}
}

// Undefined is the zero-value PeerAddress: "no peer address yet".
var Undefined = PeerAddress{}

// UDPAddrFromString parses an address string and creates a UDP PeerAddress.
func UDPAddrFromString(addr string) (PeerAddress, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return PeerAddress{}, err
	}
	return NewUDPPeerAddress(udpAddr), nil
}

// TCPAddrFromString parses an address string and creates a TCP PeerAddress.
func TCPAddrFromString(addr string) (PeerAddress, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return PeerAddress{}, err
	}
	return NewTCPPeerAddress(tcpAddr), nil
}
