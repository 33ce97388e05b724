// Package transport contains the per-endpoint connection transport and lifecycle engine:
// duplex pipes, socket connections with independent receive/send loops, the listener
// wrapper that normalizes stream and multiplexed accept shapes, and the connection
// manager that tracks live connections for one endpoint.
package transport

import (
	"fmt"
	"net"
)

// EndpointKind tags which shape an EndpointDescriptor carries.
type EndpointKind int

const (
	// EndpointKindIP identifies an IP address + port endpoint.
	EndpointKindIP EndpointKind = iota
	// EndpointKindUnix identifies a filesystem-path Unix domain socket endpoint.
	EndpointKindUnix
	// EndpointKindFileHandle identifies an inherited, already-open file handle.
	EndpointKindFileHandle
)

// EndpointDescriptor is a tagged endpoint address: an IP+port, a Unix socket
// path, or an inherited file handle with a handle-type hint. For IP endpoints
// the port may be 0 on input; TransportManager.Bind overwrites it with the
// kernel-assigned port after bind.
type EndpointDescriptor struct {
	Kind EndpointKind

	IP   net.IP
	Port int

	UnixPath string

	FileHandle     uintptr
	FileHandleHint string
}

// NewIPEndpoint builds an IP endpoint descriptor. Port 0 means "let the
// kernel assign one".
func NewIPEndpoint(ip net.IP, port int) EndpointDescriptor {
	return EndpointDescriptor{Kind: EndpointKindIP, IP: ip, Port: port}
}

// NewUnixEndpoint builds a Unix domain socket endpoint descriptor.
func NewUnixEndpoint(path string) EndpointDescriptor {
	return EndpointDescriptor{Kind: EndpointKindUnix, UnixPath: path}
}

// NewFileHandleEndpoint builds an inherited file-handle endpoint descriptor.
func NewFileHandleEndpoint(fd uintptr, hint string) EndpointDescriptor {
	return EndpointDescriptor{Kind: EndpointKindFileHandle, FileHandle: fd, FileHandleHint: hint}
}

// String renders the endpoint's type/value form used in factory-selection
// error messages: "no registered factory supports endpoint <type>: <value>".
func (e EndpointDescriptor) String() string {
	switch e.Kind {
	case EndpointKindIP:
		return fmt.Sprintf("ip: %s", net.JoinHostPort(e.IP.String(), fmt.Sprint(e.Port)))
	case EndpointKindUnix:
		return fmt.Sprintf("unix: %s", e.UnixPath)
	case EndpointKindFileHandle:
		return fmt.Sprintf("filehandle: %s(%d)", e.FileHandleHint, e.FileHandle)
	default:
		return "unknown"
	}
}

// DisplayForm renders the endpoint as "{scheme}://{host}:{port}" for IP,
// "{scheme}://unix:{path}" for Unix, and "{scheme}://<file handle>" for
// inherited descriptors. scheme is "https" iff tls is true, else "http".
func (e EndpointDescriptor) DisplayForm(tls bool) string {
	scheme := "http"
	if tls {
		scheme = "https"
	}
	switch e.Kind {
	case EndpointKindIP:
		return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(e.IP.String(), fmt.Sprint(e.Port)))
	case EndpointKindUnix:
		return fmt.Sprintf("%s://unix:%s", scheme, e.UnixPath)
	case EndpointKindFileHandle:
		return fmt.Sprintf("%s://<file handle %s:%d>", scheme, e.FileHandleHint, e.FileHandle)
	default:
		return scheme + "://<unknown>"
	}
}

// CloneWithIP returns a copy of the descriptor with its IP address replaced. Used
// to expand an "any" (wildcard) IP binding into concrete IPv4/IPv6
// descriptors without disturbing a non-IP descriptor's fields.
func (e EndpointDescriptor) CloneWithIP(ip net.IP) EndpointDescriptor {
	clone := e
	clone.IP = ip
	return clone
}
