package taxonomy

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// classifyNetwork maps transport failures raised below the handler layer
// (dialing an upstream, reading from it) onto the io branch.
func classifyNetwork(err error) (Tag, bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout, true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Timeout, true
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return Connect, true
	}
	var op *net.OpError
	if errors.As(err, &op) {
		if op.Op == "dial" {
			return Connect, true
		}
		return Socket, true
	}
	var dns *net.DNSError
	if errors.As(err, &dns) {
		return Connect, true
	}
	return "", false
}
