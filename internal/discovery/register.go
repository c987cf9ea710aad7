package discovery

import (
	"context"
	"fmt"
	"net/url"
)

// Advertise registers a service listening on port. An empty advertiseAddr
// means localhost; one without a port gets port appended.
func Advertise(ctx context.Context, d Discovery, id, advertiseAddr string, port int, protocols ...string) (ServiceDescription, error) {
	if advertiseAddr == "" {
		advertiseAddr = fmt.Sprintf("http://localhost:%d", port)
	} else {
		u, err := url.Parse(advertiseAddr)
		if err != nil {
			return ServiceDescription{}, fmt.Errorf("invalid advertise address: %w", err)
		}
		if u.Port() == "" {
			u.Host = fmt.Sprintf("%s:%d", u.Hostname(), port)
			advertiseAddr = u.String()
		}
	}

	desc := ServiceDescription{
		ID:        id,
		Address:   advertiseAddr,
		Protocols: protocols,
	}
	return desc, d.Register(ctx, desc)
}

// Locate returns the address of the first service speaking protocol.
func Locate(ctx context.Context, d Discovery, protocol string) (string, error) {
	found, err := d.Find(ctx, protocol, 1)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: no %s service registered", ErrServiceNotFound, protocol)
	}
	return found[0].Address, nil
}
