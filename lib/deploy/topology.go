package deploy

import (
	"context"

	"github.com/gravitational/installdriver/lib/constants"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// RepairPlacement fills the gaps the installer's default placement leaves:
// the first host always runs the management console and every host is a
// member of both the DATA and CLIENT groups
func (d *Driver) RepairPlacement(ctx context.Context) error {
	hosts := d.Target.Hosts
	if len(hosts) == 0 {
		return trace.BadParameter("no hosts specified")
	}
	d.WithField("hosts", hosts).Debug("Repairing service placement.")

	version := d.Target.PlatformVersion
	console, err := d.Installer.GetServiceHosts(ctx, constants.ServiceWebServer, version)
	if err != nil {
		return trace.Wrap(err)
	}
	if !contains(console, hosts[0]) {
		console = append(console, hosts[0])
		err = d.Installer.SetServiceHosts(ctx, constants.ServiceWebServer, version, console)
		if err != nil {
			return trace.Wrap(err)
		}
	}

	for _, label := range []string{constants.GroupData, constants.GroupClient} {
		if err := d.SetGroupHosts(ctx, label, hosts); err != nil {
			return trace.Wrap(err)
		}
	}
	return nil
}

// SetGroupHosts replaces the members of the group with label.
// Nothing is changed unless the label resolves to exactly one group
// or if the group already has exactly these members
func (d *Driver) SetGroupHosts(ctx context.Context, label string, hosts []string) error {
	logger := d.WithField(constants.FieldGroup, label)
	groups, err := d.Installer.FindGroups(ctx, label)
	if err != nil {
		return trace.Wrap(err)
	}
	if groups.Count != 1 || len(groups.Resources) != 1 {
		logger.Debugf("Found %v groups, skipping.", groups.Count)
		return nil
	}
	group := groups.Resources[0]
	if sameMembers(group.Hosts, hosts) {
		logger.Debug("Group is up to date.")
		return nil
	}
	return trace.Wrap(d.Installer.SetGroupHosts(ctx, group.ID.String(), hosts))
}

// AddHostToGroup adds host to the group with label keeping its other members
func (d *Driver) AddHostToGroup(ctx context.Context, host, label string) error {
	logger := d.WithFields(log.Fields{
		constants.FieldGroup: label,
		constants.FieldHost:  host,
	})
	groups, err := d.Installer.FindGroups(ctx, label)
	if err != nil {
		return trace.Wrap(err)
	}
	if groups.Count < 1 || len(groups.Resources) == 0 {
		return trace.NotFound("group %v not found", label)
	}
	id := groups.Resources[0].ID.String()
	members, err := d.Installer.GetGroupHosts(ctx, id)
	if err != nil {
		return trace.Wrap(err)
	}
	if contains(members, host) {
		logger.Debug("Host is already a member.")
		return nil
	}
	logger.Info("Adding host to group.")
	return trace.Wrap(d.Installer.SetGroupHosts(ctx, id, append(members, host)))
}

func contains(items []string, item string) bool {
	for _, i := range items {
		if i == item {
			return true
		}
	}
	return false
}

// sameMembers compares two host lists as sets
func sameMembers(a, b []string) bool {
	setA, setB := uniq(a), uniq(b)
	if len(setA) != len(setB) {
		return false
	}
	for host := range setB {
		if !setA[host] {
			return false
		}
	}
	return true
}

func uniq(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
