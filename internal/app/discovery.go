package app

import (
	"fmt"
	"log"

	"github.com/grandcat/zeroconf"
)

const (
	mdnsService = "_earable._tcp"
	mdnsDomain  = "local."
)

// advertise registers the dashboard over mDNS so phones and laptops on the
// same network can find it. The returned func unregisters it.
func advertise(instance string, port int) (func(), error) {
	server, err := zeroconf.Register(
		instance,
		mdnsService,
		mdnsDomain,
		port,
		[]string{"path=/", "api=/api/charts", "ws=/ws"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	log.Printf("web: advertising %s.%s%s on port %d", instance, mdnsService, mdnsDomain, port)
	return server.Shutdown, nil
}
