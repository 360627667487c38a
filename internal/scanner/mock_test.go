package scanner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsec/scanflow/internal/scanner"
	"github.com/kestrelsec/scanflow/pkg/api"
)

func newBackend() *scanner.Mock {
	return scanner.NewMock(scanner.Delays{
		Slow:       time.Millisecond,
		Normal:     time.Millisecond,
		Aggressive: time.Millisecond,
	})
}

func portNumbers(ports []api.Port) []int {
	res := make([]int, len(ports))
	for i, p := range ports {
		res[i] = p.Number
	}
	return res
}

func TestDiscoverPortsByMethod(t *testing.T) {
	backend := newBackend()
	ctx := context.Background()

	slow, err := backend.DiscoverPorts(ctx, "target", api.MethodSlow)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{22, 80, 443}, portNumbers(slow))

	normal, err := backend.DiscoverPorts(ctx, "target", api.MethodNormal)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{22, 80, 443, 3306}, portNumbers(normal))

	aggr, err := backend.DiscoverPorts(ctx, "target", api.MethodAggressive)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]int{21, 22, 80, 443, 3306, 8443, 27017}, portNumbers(aggr))
}

func TestDiscoverPortsLeavesServicesBlank(t *testing.T) {
	backend := newBackend()
	ports, err := backend.DiscoverPorts(
		context.Background(), "target", api.MethodNormal,
	)
	require.NoError(t, err)
	for _, p := range ports {
		assert.Empty(t, p.Service)
		assert.Empty(t, p.Version)
	}
}

func TestDetectServices(t *testing.T) {
	backend := newBackend()
	ctx := context.Background()

	ports, err := backend.DiscoverPorts(ctx, "target", api.MethodAggressive)
	require.NoError(t, err)

	annotated, err := backend.DetectServices(ctx, ports)
	require.NoError(t, err)

	byNumber := map[int]api.Port{}
	for _, p := range annotated {
		byNumber[p.Number] = p
	}

	assert.Equal(t, "ssh", byNumber[22].Service)
	assert.Equal(t, "http", byNumber[80].Service)
	assert.Equal(t, "mysql", byNumber[3306].Service)
	assert.Equal(t, "mongodb", byNumber[27017].Service)
	assert.NotEmpty(t, byNumber[22].Version)
}

func TestDetectServicesUnknownPort(t *testing.T) {
	backend := newBackend()
	annotated, err := backend.DetectServices(context.Background(), []api.Port{
		{Number: 31337, Protocol: "tcp", State: api.PortOpen},
	})
	require.NoError(t, err)
	require.Len(t, annotated, 1)
	assert.Equal(t, "unknown", annotated[0].Service)
}

func TestFindVulnerabilitiesSkipsNonOpenPorts(t *testing.T) {
	backend := newBackend()
	ctx := context.Background()

	ports, err := backend.DiscoverPorts(ctx, "target", api.MethodAggressive)
	require.NoError(t, err)
	ports, err = backend.DetectServices(ctx, ports)
	require.NoError(t, err)

	vulns, err := backend.FindVulnerabilities(
		ctx, "target", api.MethodNormal, ports,
	)
	require.NoError(t, err)

	// 8443 is filtered, so it carries no findings
	assert.NotContains(t, vulns, 8443)
	assert.Contains(t, vulns, 27017)
}

func TestAggressiveScanAddsInformationalFindings(t *testing.T) {
	backend := newBackend()
	ctx := context.Background()

	ports := []api.Port{
		{Number: 80, Protocol: "tcp", Service: "http", State: api.PortOpen},
	}

	normal, err := backend.FindVulnerabilities(
		ctx, "target", api.MethodNormal, ports,
	)
	require.NoError(t, err)

	aggressive, err := backend.FindVulnerabilities(
		ctx, "target", api.MethodAggressive, ports,
	)
	require.NoError(t, err)

	assert.Greater(t, len(aggressive[80]), len(normal[80]))
}

func TestBackendHonorsContextCancel(t *testing.T) {
	backend := scanner.NewMock(scanner.Delays{
		Slow:       time.Minute,
		Normal:     time.Minute,
		Aggressive: time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := backend.DiscoverPorts(ctx, "target", api.MethodNormal)
	assert.ErrorIs(t, err, context.Canceled)
}
