package deploy

import (
	"context"

	"github.com/gravitational/installdriver/lib/constants"
	"github.com/gravitational/installdriver/lib/defaults"
	"github.com/gravitational/installdriver/lib/wait"

	humanize "github.com/dustin/go-humanize"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// inProgress maps a requested process state to the state the installer
// reports while it is working towards it.
// States missing here have no in-progress form
var inProgress = map[string]string{
	constants.StateChecked:     constants.StateChecking,
	constants.StateProvisioned: constants.StateProvisioning,
	constants.StateInstalled:   constants.StateInstalling,
	constants.StateLicensed:    constants.StateLicensing,
	constants.StateUninstalled: constants.StateUninstalling,
}

// WaitForState polls the installer process until it arrives at target.
// Only the in-progress form of target keeps the wait going, any other
// state fails immediately.
// The last observed state is available from State afterwards
func (d *Driver) WaitForState(ctx context.Context, target string, phase defaults.Phase) error {
	if phase.Interval <= 0 {
		return trace.BadParameter("poll interval must be positive, got %v", phase.Interval)
	}
	logger := d.WithField(constants.FieldTarget, target)
	start := d.Clock.Now()
	for remaining := phase.Timeout; remaining > 0; remaining -= phase.Interval {
		process, err := d.Installer.GetProcess(ctx)
		if err != nil {
			return trace.Wrap(err)
		}
		d.state = process.State
		if d.state == target {
			d.progressf(logger, "Installer state %v.", d.state)
			return nil
		}
		sibling, ok := inProgress[target]
		if !ok || d.state != sibling {
			logger.WithField(constants.FieldState, d.state).Warn("Unexpected installer state.")
			return trace.CompareFailed("expected installer state %v, got %v", target, d.state)
		}
		d.progressf(logger.WithField(constants.FieldState, d.state), "Waiting for %v, started %v.",
			target, humanize.RelTime(start, d.Clock.Now(), "ago", "from now"))
		if err := wait.Sleep(ctx, d.Clock, phase.Interval); err != nil {
			return trace.Wrap(err)
		}
	}
	return trace.LimitExceeded("installer did not reach %v within %v, last state %v",
		target, phase.Timeout, d.state)
}

// progressf logs a progress message, at debug level when quiet
func (d *Driver) progressf(logger log.FieldLogger, format string, args ...interface{}) {
	if d.Quiet {
		logger.Debugf(format, args...)
		return
	}
	logger.Infof(format, args...)
}

// request asks the installer to transition to state
func (d *Driver) request(ctx context.Context, state string) error {
	d.WithField(constants.FieldTarget, state).Debug("Requesting state.")
	return trace.Wrap(d.Installer.RequestState(ctx, state))
}

// CheckAndProvision validates the hosts and provisions the services on them.
// Checking is skipped when resuming from a failed installation.
// Placement is repaired afterwards unless the manifest is empty
func (d *Driver) CheckAndProvision(ctx context.Context) error {
	if len(d.Target.Hosts) == 0 {
		return trace.BadParameter("no hosts specified")
	}
	if len(d.Target.Disks) == 0 {
		return trace.BadParameter("no disks specified")
	}

	if d.state != constants.StateInstallError {
		if err := d.request(ctx, constants.StateChecking); err != nil {
			return trace.Wrap(err)
		}
		err := d.WaitForState(ctx, constants.StateChecked, d.Phases.Check)
		if err != nil {
			if !constants.IsWarnState(d.state) || !d.IgnoreWarnings {
				return trace.Wrap(err)
			}
			d.WithField(constants.FieldState, d.state).Warn("Check completed with warnings.")
			d.warnings = true
		}
	}

	if err := d.request(ctx, constants.StateProvisioning); err != nil {
		return trace.Wrap(err)
	}
	if err := d.WaitForState(ctx, constants.StateProvisioned, d.Phases.Provision); err != nil {
		return trace.Wrap(err)
	}

	if len(d.Manifest) != 0 {
		if err := d.RepairPlacement(ctx); err != nil {
			return trace.Wrap(err)
		}
	}
	if !d.Quiet {
		if err := d.PrintServiceLayout(ctx); err != nil {
			d.WithError(err).Warn("Failed to query service layout.")
		}
	}
	return nil
}

// Install installs the provisioned services, applies the trial license
// if one was uploaded and marks the installation complete
func (d *Driver) Install(ctx context.Context) error {
	state := constants.StateInstalling
	if d.state == constants.StateInstallError {
		state = constants.StateRetrying
	}
	if err := d.request(ctx, state); err != nil {
		return trace.Wrap(err)
	}
	if err := d.WaitForState(ctx, constants.StateInstalled, d.Phases.Install); err != nil {
		return trace.Wrap(err)
	}

	if d.licenseUploaded {
		if err := d.request(ctx, constants.StateLicensing); err != nil {
			return trace.Wrap(err)
		}
		if err := d.WaitForState(ctx, constants.StateLicensed, d.Phases.License); err != nil {
			return trace.Wrap(err)
		}
	}

	if err := d.request(ctx, constants.StateCompleted); err != nil {
		d.WithError(err).Warn("Failed to complete installation.")
		return nil
	}
	if err := d.WaitForState(ctx, constants.StateCompleted, d.Phases.Complete); err != nil {
		d.WithError(err).Warn("Installation not marked complete.")
	}
	return nil
}

// Uninstall removes the cluster.
// An installer already back in INIT counts as uninstalled
func (d *Driver) Uninstall(ctx context.Context) error {
	process, err := d.Installer.GetProcess(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	d.state = process.State
	if d.state != constants.StateUninstalling {
		if err := d.request(ctx, constants.StateUninstalling); err != nil {
			return trace.Wrap(err)
		}
	}
	err = d.WaitForState(ctx, constants.StateUninstalled, d.Phases.Uninstall)
	if err != nil && d.state != constants.StateInit {
		return trace.Wrap(err)
	}
	return nil
}
