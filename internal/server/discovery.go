package server

import (
	"context"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

// serviceType is the DNS-SD service type advertised for dashboard
// discovery, following the "_service._tcp" convention.
const serviceType = "_ofdm-chanest._tcp"

// Advertise announces the dashboard's HTTP port over mDNS/DNS-SD so a
// client on the local network can find it without a known address. It
// runs the responder in the background until ctx is cancelled.
func Advertise(ctx context.Context, name string, port int) error {
	cfg := dnssd.Config{
		Name: name,
		Type: serviceType,
		Port: port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		return err
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return err
	}

	if _, err := rp.Add(sv); err != nil {
		return err
	}

	log.Info("announcing dashboard over DNS-SD", "name", name, "port", port)

	go func() {
		if err := rp.Respond(ctx); err != nil {
			log.Warn("DNS-SD responder stopped", "err", err)
		}
	}()
	return nil
}
