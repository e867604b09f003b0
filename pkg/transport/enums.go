package transport

// TransportType identifies the transport protocol used for a message.
type TransportType int

const (
	// TransportTypeUndefined marks "no peer address yet" — the zero value.
	TransportTypeUndefined TransportType = iota
	// TransportTypeUDP indicates UDP transport.
	TransportTypeUDP
	// TransportTypeTCP indicates TCP transport.
	TransportTypeTCP
	// TransportTypeBLE indicates a Bluetooth LE (BTP) transport. The session
	// manager never opens a BLE connection itself; it only carries the
	// address so NewPairing can accept a pairing performed over BLE.
	TransportTypeBLE
)

// String returns the string representation of the transport type.
func (t TransportType) String() string {
	switch t {
	case TransportTypeUDP:
		return "UDP"
	case TransportTypeTCP:
		return "TCP"
	case TransportTypeBLE:
		return "BLE"
	default:
		return "Undefined"
	}
}

// IsValid returns true if the transport type is a known, non-undefined type.
func (t TransportType) IsValid() bool {
	return t == TransportTypeUDP || t == TransportTypeTCP || t == TransportTypeBLE
}
