// core_engine/network/tap_device.go
package network

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// TapDevice implements devices.HostNetInterface over a Linux TUN/TAP
// device, the host transport the optional W5100-style NicAdapter rides
// on. The ioctl dance is unmodified board-independent Linux plumbing;
// NewTapDevice is the only place in this repo that opens a raw fd.
type TapDevice struct {
	fd   int
	name string
}

// NewTapDevice creates and configures a new TAP device.
func NewTapDevice(name string) (*TapDevice, error) {
	fd, err := syscall.Open("/dev/net/tun", syscall.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("network: open /dev/net/tun: %w", err)
	}

	var ifr struct {
		Name  [16]byte
		Flags uint16
		_     [2]byte
	}
	copy(ifr.Name[:], name)
	ifr.Flags = unix.IFF_TAP | unix.IFF_NO_PI

	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(unix.TUNSETIFF), uintptr(unsafe.Pointer(&ifr))); errno != 0 {
		syscall.Close(fd)
		return nil, fmt.Errorf("network: TUNSETIFF %s: %w", name, errno)
	}
	return &TapDevice{fd: fd, name: name}, nil
}

// ReadPacket reads one Ethernet frame from the TAP device, returning
// (nil, nil) when nothing is queued -- NicAdapter.Process polls this once
// per outer batch and must never block.
func (t *TapDevice) ReadPacket() ([]byte, error) {
	buf := make([]byte, 2048)
	n, err := syscall.Read(t.fd, buf)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return nil, nil
		}
		return nil, fmt.Errorf("network: read %s: %w", t.name, err)
	}
	return buf[:n], nil
}

// WritePacket writes one Ethernet frame to the TAP device.
func (t *TapDevice) WritePacket(packet []byte) (int, error) {
	n, err := syscall.Write(t.fd, packet)
	if err != nil {
		return 0, fmt.Errorf("network: write %s: %w", t.name, err)
	}
	return n, nil
}

// Close closes the TAP device file descriptor.
func (t *TapDevice) Close() error {
	if t.fd == 0 {
		return nil
	}
	return syscall.Close(t.fd)
}
