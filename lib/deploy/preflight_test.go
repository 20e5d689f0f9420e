package deploy

import (
	"context"
	"testing"

	"github.com/gravitational/installdriver/lib/installer/installertest"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/assert"
)

func TestPreflightValidatesCredentials(t *testing.T) {
	srv := installertest.New("mapr", "MapR")
	defer srv.Close()

	d, _ := newTestDriver(t, srv, func(c *Config) {
		c.Target.SSHKey = ""
		c.Target.SSHPassword = ""
	})
	err := d.Preflight(context.Background())
	assert.True(t, trace.IsBadParameter(err), "%v", err)

	d, _ = newTestDriver(t, srv, func(c *Config) { c.Target.Hosts = nil })
	err = d.Preflight(context.Background())
	assert.True(t, trace.IsBadParameter(err), "%v", err)
}
