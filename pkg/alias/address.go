package alias

import (
	"fmt"
	"net"
)

// AddressLen is the length in bytes of a hardware address.
const AddressLen = 6

// HardwareAddr is a 6-byte hardware (MAC) address.
type HardwareAddr [AddressLen]byte

// Broadcast is the all-ones hardware address held by the default entry.
var Broadcast = HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// AddressFrom converts a net.HardwareAddr. It reports false unless addr is
// exactly 6 bytes long.
func AddressFrom(addr net.HardwareAddr) (HardwareAddr, bool) {
	var a HardwareAddr
	if len(addr) != AddressLen {
		return a, false
	}
	copy(a[:], addr)
	return a, true
}

// ParseAddress parses a colon, dash or dot separated 6-byte hardware address.
func ParseAddress(s string) (HardwareAddr, error) {
	mac, err := net.ParseMAC(s)
	if err != nil {
		return HardwareAddr{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	a, ok := AddressFrom(mac)
	if !ok {
		return HardwareAddr{}, fmt.Errorf("%w: %q is %d bytes", ErrInvalidAddress, s, len(mac))
	}
	return a, nil
}

// Net returns the address as a net.HardwareAddr.
func (a HardwareAddr) Net() net.HardwareAddr {
	return net.HardwareAddr(append([]byte(nil), a[:]...))
}

func (a HardwareAddr) String() string {
	return net.HardwareAddr(a[:]).String()
}

// IsZero reports whether all bytes of the address are zero.
func (a HardwareAddr) IsZero() bool {
	return a == HardwareAddr{}
}
