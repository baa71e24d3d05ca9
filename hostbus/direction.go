package hostbus

// Direction tags the DMA pipeline a buffer belongs to. The zero value is
// deliberately invalid so a missing tag is rejected rather than routed.
type Direction uint8

const (
	Receive Direction = iota + 1
	Transmit
)

func (d Direction) String() string {
	switch d {
	case Receive:
		return "rx"
	case Transmit:
		return "tx"
	default:
		return "invalid"
	}
}

// Valid reports whether d is Receive or Transmit.
func (d Direction) Valid() bool { return d == Receive || d == Transmit }
