package deploy

import (
	"context"
	"net"
	"strconv"

	"github.com/gravitational/installdriver/lib/constants"
	"github.com/gravitational/installdriver/lib/defaults"
	sshutils "github.com/gravitational/installdriver/lib/ssh"
	"github.com/gravitational/installdriver/lib/utils"

	"github.com/gravitational/trace"
)

// Preflight verifies that every target host accepts the SSH credentials
// the installer is going to use
func (d *Driver) Preflight(ctx context.Context) error {
	target := d.Target
	if len(target.Hosts) == 0 {
		return trace.BadParameter("no hosts specified")
	}
	auth, err := sshutils.AuthMethods(target.SSHKey, target.SSHPassword)
	if err != nil {
		return trace.Wrap(err)
	}
	port := target.SSHPort
	if port == 0 {
		port = defaults.SSHPort
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.PreflightTimeout)
	defer cancel()

	errCh := make(chan error, len(target.Hosts))
	for _, host := range target.Hosts {
		go func(host string) {
			logger := d.WithField(constants.FieldHost, host)
			err := sshutils.Probe(ctx, sshutils.ProbeConfig{
				Addr: net.JoinHostPort(host, strconv.Itoa(port)),
				User: target.SSHUser,
				Auth: auth,
			}, logger)
			if err != nil {
				logger.WithError(err).Warn("SSH preflight failed.")
			}
			errCh <- trace.Wrap(err)
		}(host)
	}
	if err := utils.CollectErrors(ctx, len(target.Hosts), errCh); err != nil {
		return trace.Wrap(err)
	}
	d.Infof("SSH access to %v host(s) verified.", len(target.Hosts))
	return nil
}
