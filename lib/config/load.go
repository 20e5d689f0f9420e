package config

import (
	"github.com/gravitational/installdriver/lib/system"

	"github.com/gravitational/configure"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// LoadFile reads the YAML configuration at path on top of config
func LoadFile(path string, config *Config) error {
	data, err := system.ReadFile(path)
	if err != nil {
		return trace.Wrap(err)
	}
	if err := yaml.UnmarshalStrict([]byte(data), config); err != nil {
		return trace.BadParameter("failed to parse %v: %v", path, err)
	}
	return nil
}

// secrets can be passed in the environment to keep them off the command line
type secrets struct {
	AdminPassword  string `env:"INSTALLDRIVER_MAPR_PASSWORD"`
	SSHPassword    string `env:"INSTALLDRIVER_SSH_PASSWORD"`
	PortalPassword string `env:"INSTALLDRIVER_PORTAL_PASSWORD"`
	StagePassword  string `env:"INSTALLDRIVER_STAGE_PASSWORD"`
}

// ParseEnv overrides credentials with values from the environment
func ParseEnv(config *Config) error {
	var env secrets
	if err := configure.ParseEnv(&env); err != nil {
		return trace.Wrap(err)
	}
	for _, s := range []struct {
		value  string
		target *string
	}{
		{env.AdminPassword, &config.AdminPassword},
		{env.SSHPassword, &config.SSHPassword},
		{env.PortalPassword, &config.PortalPassword},
		{env.StagePassword, &config.StagePassword},
	} {
		if s.value != "" {
			*s.target = s.value
		}
	}
	return nil
}

// Sources names the files hosts, disks and the SSH key are read from
type Sources struct {
	HostsFile  string
	DisksFile  string
	SSHKeyFile string
}

// ReadSources fills in hosts, disks and the SSH key from files.
// Lists given explicitly take precedence over files, a missing list
// file leaves the list empty
func (r *Config) ReadSources(sources Sources) error {
	if len(r.Hosts) == 0 && sources.HostsFile != "" {
		hosts, err := readList(sources.HostsFile)
		if err != nil {
			return trace.Wrap(err)
		}
		r.Hosts = hosts
	}
	if len(r.Disks) == 0 && sources.DisksFile != "" {
		disks, err := readList(sources.DisksFile)
		if err != nil {
			return trace.Wrap(err)
		}
		r.Disks = disks
	}
	if sources.SSHKeyFile != "" {
		r.SSHKeyFile = sources.SSHKeyFile
	}
	if r.SSHKeyFile != "" && r.SSHKey == "" {
		key, err := system.ReadFile(r.SSHKeyFile)
		if err != nil {
			return trace.Wrap(err, "failed to read SSH key")
		}
		r.SSHKey = key
	}
	return nil
}

func readList(path string) ([]string, error) {
	items, err := system.ReadItems(path)
	if err != nil {
		if trace.IsNotFound(err) {
			log.Warnf("List file %v not found.", path)
			return nil, nil
		}
		return nil, trace.Wrap(err)
	}
	return items, nil
}
