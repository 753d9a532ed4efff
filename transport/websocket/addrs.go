package websocket

import (
	"net"
)

// listenURLs returns a ws:// URL for every non-internal IPv4 address of this host.
func listenURLs(port string) ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	return externalIPv4URLs(addrs, port), nil
}

func externalIPv4URLs(addrs []net.Addr, port string) []string {
	var urls []string

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}

		ip := ipNet.IP.To4()
		if ip == nil {
			continue
		}

		urls = append(urls, "ws://"+net.JoinHostPort(ip.String(), port))
	}

	return urls
}
