package deploy

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gravitational/installdriver/lib/config"
	"github.com/gravitational/installdriver/lib/constants"
	"github.com/gravitational/installdriver/lib/installer"

	"github.com/gravitational/trace"
)

// PushClusterConfig uploads the cluster configuration and the service
// manifest one attribute group at a time and waits for the installer
// to settle in INIT.
// An installer that already went past INIT in an earlier run is accepted
// when it is checking, provisioned or failed
func (d *Driver) PushClusterConfig(ctx context.Context) error {
	target := d.Target
	updates := []map[string]interface{}{
		{"cluster_admin_password": target.AdminPassword},
		{"cluster_admin_create": true},
		{"cluster_name": target.Name},
		{"ssh_id": target.SSHUser},
	}
	switch {
	case target.SSHKey != "":
		updates = append(updates, map[string]interface{}{"ssh_key": target.SSHKey})
	case target.SSHPassword != "":
		updates = append(updates, map[string]interface{}{"ssh_password": target.SSHPassword})
	}
	// the installer defaults to its own host
	if len(target.Hosts) != 0 {
		updates = append(updates, map[string]interface{}{"hosts": target.Hosts})
	}
	if len(target.Disks) != 0 {
		updates = append(updates, map[string]interface{}{"disks": target.Disks})
	} else {
		d.Warn("No disks specified.")
	}
	updates = append(updates, map[string]interface{}{"license_type": target.Edition})
	if target.PortalUser != "" && target.PortalPassword != "" {
		updates = append(updates, map[string]interface{}{
			"mapr_name":     target.PortalUser,
			"mapr_password": target.PortalPassword,
		})
	}
	updates = append(updates, map[string]interface{}{"services": d.Manifest})

	for _, attrs := range updates {
		if err := d.Installer.UpdateConfig(ctx, attrs); err != nil {
			return trace.Wrap(err)
		}
	}

	d.uploadTrialLicense(ctx)

	if !d.Quiet {
		if err := d.printConfig(ctx); err != nil {
			d.WithError(err).Warn("Failed to read back configuration.")
		}
	}

	err := d.WaitForState(ctx, constants.StateInit, d.Phases.Init)
	if err == nil {
		return nil
	}
	if constants.IsCheckState(d.state) || d.state == constants.StateProvisioned || constants.IsErrorState(d.state) {
		d.WithField(constants.FieldState, d.state).Info("Installer is past INIT from an earlier run, continuing.")
		return nil
	}
	return trace.Wrap(err)
}

// uploadTrialLicense adds a trial license to the configuration if stage
// credentials were given and the edition needs a license.
// Failing to fetch the license is not fatal
func (d *Driver) uploadTrialLicense(ctx context.Context) {
	target := d.Target
	if target.StageUser == "" || target.Edition == constants.EditionCommunity {
		return
	}
	logger := d.WithField("edition", target.Edition)
	logger.Infof("Fetching trial license as %v.", target.StageUser)
	license, err := installer.FetchTrialLicense(ctx, installer.LicenseSource{
		URL:      target.StageURL,
		User:     target.StageUser,
		Password: target.StagePassword,
	}, target.Edition)
	if err != nil {
		logger.WithError(err).Info("Failed to retrieve trial license.")
		return
	}
	if err := d.Installer.UpdateConfig(ctx, map[string]interface{}{"license": license}); err != nil {
		logger.WithError(err).Warn("Failed to upload trial license.")
		return
	}
	d.licenseUploaded = true
}

// printConfig writes the installer configuration with secrets masked
func (d *Driver) printConfig(ctx context.Context) error {
	cfg, err := d.Installer.GetConfig(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	data, err := json.MarshalIndent(maskConfig(cfg.Raw), "", "    ")
	if err != nil {
		return trace.Wrap(err)
	}
	_, err = d.Out.Write(append(data, '\n'))
	return trace.Wrap(err)
}

// maskConfig returns a copy of the configuration document safe to print.
// Nested documents such as service databases are masked as well
func maskConfig(raw map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		if nested, ok := value.(map[string]interface{}); ok {
			masked[key] = maskConfig(nested)
			continue
		}
		s, ok := value.(string)
		switch {
		case !ok || s == "":
			masked[key] = value
		case key == "ssh_key" || key == "license":
			masked[key] = config.MaskKey(s)
		case strings.HasSuffix(key, "password"):
			masked[key] = constants.MaskedSecret
		default:
			masked[key] = value
		}
	}
	return masked
}
