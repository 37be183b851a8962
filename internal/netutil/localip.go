package netutil

import "net"

const fallbackIP = "127.0.0.1"

// LocalIP returns the address of the interface used for outbound traffic.
// No packet is sent, dialing UDP only selects a route.
func LocalIP() string {
	return localIPVia("8.8.8.8:80")
}

func localIPVia(probe string) string {
	conn, err := net.Dial("udp4", probe)
	if err != nil {
		return fallbackIP
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return fallbackIP
	}
	return addr.IP.String()
}
