//go:build !linux && !darwin

package tcp

import "net"

// listenTCPReusable ignores reusePort on platforms without SO_REUSEPORT
// wired through golang.org/x/sys/unix.
func listenTCPReusable(addr *net.TCPAddr, reusePort bool) (*net.TCPListener, error) {
	return net.ListenTCP("tcp", addr)
}
