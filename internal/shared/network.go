package shared

import "net"

var dialUDP = func() (net.Conn, error) { return net.Dial("udp", "192.0.2.1:80") }

// LANAddress returns the IP of the interface used for outbound traffic, or 127.0.0.1.
//
// Dialing UDP sends no packets; it only selects a route.
func LANAddress() string {
	conn, err := dialUDP()
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.IsUnspecified() {
		return "127.0.0.1"
	}
	return addr.IP.String()
}
