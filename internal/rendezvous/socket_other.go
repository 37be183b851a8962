//go:build !unix

package rendezvous

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
