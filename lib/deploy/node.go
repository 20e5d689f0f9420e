package deploy

import (
	"context"

	"github.com/gravitational/installdriver/lib/constants"

	"github.com/gravitational/trace"
)

// AddNode adds host to an installed cluster as a member of group.
// Hosts and disks are taken from the installer configuration, placement
// of the existing hosts is left intact.
// A host added to DATA also becomes a client.
// A group missing from the installer is skipped
func (d *Driver) AddNode(ctx context.Context, host, group string) error {
	if host == "" {
		return trace.BadParameter("host is required")
	}
	if group == "" {
		group = constants.GroupData
	}
	logger := d.WithField(constants.FieldHost, host)

	cfg, err := d.Installer.GetConfig(ctx)
	if err != nil {
		return d.stageError(StageInit, err)
	}
	hosts := cfg.Hosts
	if contains(hosts, host) {
		logger.Debug("Host is already in cluster configuration.")
	} else {
		hosts = append(hosts, host)
		logger.WithField("hosts", hosts).Info("Adding host to cluster configuration.")
		if err := d.Installer.UpdateConfig(ctx, map[string]interface{}{"hosts": hosts}); err != nil {
			return d.stageError(StageInit, err)
		}
		if err := d.Installer.AddHost(ctx, host); err != nil {
			return d.stageError(StageInit, err)
		}
	}
	d.Target.Hosts = hosts
	d.Target.Disks = cfg.Disks
	// placement of the existing hosts must not be replaced
	d.Manifest = nil

	process, err := d.Installer.GetProcess(ctx)
	if err != nil {
		return d.stageError(StageInit, err)
	}
	d.state = process.State

	if err := d.CheckAndProvision(ctx); err != nil {
		return d.stageError(StageCheck, err)
	}

	groups := []string{group}
	if group == constants.GroupData {
		groups = append(groups, constants.GroupClient)
	}
	for _, label := range groups {
		err := d.AddHostToGroup(ctx, host, label)
		if trace.IsNotFound(err) {
			logger.WithField(constants.FieldGroup, label).Warn("Group not found, installing without it.")
			continue
		}
		if err != nil {
			return d.stageError(StageCheck, err)
		}
	}

	if err := d.Install(ctx); err != nil {
		return d.stageError(StageInstall, err)
	}
	return nil
}
