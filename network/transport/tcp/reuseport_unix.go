//go:build linux || darwin

package tcp

import (
	"context"
	"errors"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenTCPReusable binds addr, optionally setting SO_REUSEPORT before
// bind(2) so a config-reload rebind of the same address can succeed while
// the old listener is still draining.
func listenTCPReusable(addr *net.TCPAddr, reusePort bool) (*net.TCPListener, error) {
	lc := net.ListenConfig{}
	if reusePort {
		lc.Control = func(_, _ string, c syscall.RawConn) error {
			var setErr error
			if err := c.Control(func(fd uintptr) {
				setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			}); err != nil {
				return err
			}
			return setErr
		}
	}

	ln, err := lc.Listen(context.Background(), "tcp", addr.String())
	if err != nil {
		return nil, err
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		_ = ln.Close()
		return nil, errors.New("tcp: listener is not a *net.TCPListener")
	}
	return tcpLn, nil
}
