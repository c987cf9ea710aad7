package discovery_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"namereg/internal/discovery"
)

func runDiscoveryTest(t *testing.T, d discovery.Discovery) {
	ctx := context.Background()

	_, err := d.Get(ctx, "missing")
	assert.ErrorIs(t, err, discovery.ErrServiceNotFound)

	for i := 3; i >= 1; i-- {
		require.NoError(t, d.Register(ctx, discovery.ServiceDescription{
			ID:        fmt.Sprintf("records-%d", i),
			Address:   fmt.Sprintf("http://records-%d:8080", i),
			Protocols: []string{discovery.RecordsProtocol},
		}))
	}
	require.NoError(t, d.Register(ctx, discovery.ServiceDescription{
		ID:        "storage-1",
		Address:   "http://storage-1:8080",
		Protocols: []string{discovery.StorageProtocol},
	}))

	desc, err := d.Get(ctx, "storage-1")
	require.NoError(t, err)
	assert.Equal(t, "http://storage-1:8080", desc.Address)
	assert.Equal(t, []string{discovery.StorageProtocol}, desc.Protocols)

	found, err := d.Find(ctx, discovery.RecordsProtocol, 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "records-1", found[0].ID)
	assert.Equal(t, "records-2", found[1].ID)

	found, err = d.Find(ctx, "unknown-v1", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	// Re-registering replaces the entry.
	require.NoError(t, d.Register(ctx, discovery.ServiceDescription{
		ID:        "storage-1",
		Address:   "http://storage-1:9090",
		Protocols: []string{discovery.StorageProtocol},
	}))
	addr, err := discovery.Locate(ctx, d, discovery.StorageProtocol)
	require.NoError(t, err)
	assert.Equal(t, "http://storage-1:9090", addr)

	_, err = discovery.Locate(ctx, d, "unknown-v1")
	assert.ErrorIs(t, err, discovery.ErrServiceNotFound)

	err = d.Register(ctx, discovery.ServiceDescription{ID: "no-address"})
	assert.ErrorIs(t, err, discovery.ErrInvalidRegistration)
}

func TestMemoryDiscovery(t *testing.T) {
	runDiscoveryTest(t, discovery.NewMemoryDiscovery())
}

func TestClientServer(t *testing.T) {
	server := discovery.NewServer(discovery.NewMemoryDiscovery(), zaptest.NewLogger(t))
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	runDiscoveryTest(t, discovery.NewClient(ts.URL, ts.Client()))
}

func TestAdvertise(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		advertise string
		want      string
	}{
		{"default", "", "http://localhost:7001"},
		{"host only", "http://records.example", "http://records.example:7001"},
		{"host and port", "http://records.example:80", "http://records.example:80"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := discovery.NewMemoryDiscovery()
			desc, err := discovery.Advertise(ctx, d, "id", tt.advertise, 7001, discovery.RecordsProtocol)
			require.NoError(t, err)
			assert.Equal(t, tt.want, desc.Address)

			got, err := d.Get(ctx, "id")
			require.NoError(t, err)
			assert.Equal(t, desc, got)
		})
	}

	_, err := discovery.Advertise(ctx, discovery.NewMemoryDiscovery(), "id", "://bad", 7001)
	assert.Error(t, err)
}
