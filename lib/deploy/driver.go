/*
Copyright 2020 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package deploy drives a cluster installation through the installer
// process state machine
package deploy

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gravitational/installdriver/lib/config"
	"github.com/gravitational/installdriver/lib/defaults"
	"github.com/gravitational/installdriver/lib/installer"
	"github.com/gravitational/installdriver/lib/manifest"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// Installer is the installer API used by the driver
type Installer interface {
	manifest.Catalog
	GetConfig(ctx context.Context) (*installer.ClusterConfig, error)
	UpdateConfig(ctx context.Context, attrs map[string]interface{}) error
	GetProcess(ctx context.Context) (*installer.Process, error)
	RequestState(ctx context.Context, state string) error
	ProcessLog(ctx context.Context) (string, error)
	FindService(ctx context.Context, component, version string) (*installer.ServiceResource, error)
	GetServiceHosts(ctx context.Context, component, version string) ([]string, error)
	SetServiceHosts(ctx context.Context, component, version string, hosts []string) error
	FindGroups(ctx context.Context, label string) (*installer.GroupList, error)
	GetGroupHosts(ctx context.Context, id string) ([]string, error)
	SetGroupHosts(ctx context.Context, id string, hosts []string) error
	AddHost(ctx context.Context, id string) error
	FindHosts(ctx context.Context, id string) (*installer.HostList, error)
}

// Confirm asks the operator whether to continue with the next phase
type Confirm func(prompt string) (bool, error)

// Config configures the deployment driver
type Config struct {
	// Installer is the installer API
	Installer Installer
	// InstallerURL is the installer address shown to the operator
	InstallerURL string
	// Target is the desired cluster
	Target config.ClusterTarget
	// Manifest lists the services to install.
	// Empty when operating on an existing cluster
	Manifest manifest.Manifest
	// Phases are the wait budgets of the process states
	Phases defaults.Phases
	// IgnoreWarnings continues after a check that completed with warnings
	IgnoreWarnings bool
	// Quiet suppresses progress and the configuration echo
	Quiet bool
	// Confirm is asked before every phase, nil continues unconditionally
	Confirm Confirm
	// Clock measures poll intervals
	Clock clockwork.Clock
	// Out receives reports
	Out io.Writer
	// FieldLogger specifies the log sink
	log.FieldLogger
}

// CheckAndSetDefaults validates the configuration and sets default values
func (r *Config) CheckAndSetDefaults() error {
	if r.Installer == nil {
		return trace.BadParameter("installer is required")
	}
	if r.InstallerURL == "" {
		r.InstallerURL = defaults.InstallerURL
	}
	if r.Phases == (defaults.Phases{}) {
		r.Phases = defaults.DefaultPhases()
	}
	if r.Confirm == nil {
		r.Confirm = func(string) (bool, error) { return true, nil }
	}
	if r.Clock == nil {
		r.Clock = clockwork.NewRealClock()
	}
	if r.Out == nil {
		r.Out = os.Stdout
	}
	if r.FieldLogger == nil {
		r.FieldLogger = log.StandardLogger()
	}
	return nil
}

// Driver pushes the cluster configuration to the installer and walks
// its process through check, provision, install and license
type Driver struct {
	Config
	// state is the last observed process state
	state string
	// licenseUploaded is set once a trial license has been added to the configuration
	licenseUploaded bool
	// warnings is set if the check phase completed with warnings
	warnings bool
}

// New returns a new driver
func New(config Config) (*Driver, error) {
	if err := config.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Driver{Config: config}, nil
}

// State returns the last observed installer process state
func (d *Driver) State() string {
	return d.state
}

// Warnings returns true if the check phase completed with warnings
func (d *Driver) Warnings() bool {
	return d.warnings
}

// Deploy installs the cluster: pushes the configuration, checks and
// provisions the hosts and installs the services, confirming every step.
// Declining to continue is not an error
func (d *Driver) Deploy(ctx context.Context) error {
	err := d.PushClusterConfig(ctx)
	if err != nil {
		return d.stageError(StageInit, err)
	}
	ok, err := d.Confirm("Configuration uploaded; continue with CHECKING ?")
	if err != nil || !ok {
		return trace.Wrap(err)
	}

	err = d.CheckAndProvision(ctx)
	if err != nil {
		return d.stageError(StageCheck, err)
	}
	prompt := "Configuration validated; continue with INSTALL ?"
	if d.warnings {
		prompt = "Configuration validated (with WARNINGS); continue with INSTALL ?"
	}
	ok, err = d.Confirm(prompt)
	if err != nil || !ok {
		return trace.Wrap(err)
	}

	err = d.Install(ctx)
	if err != nil {
		return d.stageError(StageInstall, err)
	}
	fmt.Fprintln(d.Out)
	d.PrintSuccessURL()
	if err := d.PrintConsoleURLs(ctx); err != nil {
		d.WithError(err).Warn("Failed to query management console hosts.")
	}
	return nil
}
