package config

import (
	"regexp"
	"strings"

	"github.com/gravitational/installdriver/lib/constants"
	"github.com/gravitational/installdriver/lib/defaults"

	"github.com/gravitational/trace"
	"gopkg.in/go-playground/validator.v9"
)

// ClusterTarget describes the desired cluster
type ClusterTarget struct {
	// Name is the cluster name
	Name string `yaml:"cluster" validate:"required"`
	// PlatformVersion is the version of the core platform services
	PlatformVersion string `yaml:"mapr_version" validate:"required"`
	// Edition is the license class, one of M3, M5 or M7
	Edition string `yaml:"mapr_edition" validate:"eq=M3|eq=M5|eq=M7"`
	// AdminUser and AdminPassword are the cluster administrator credentials,
	// they also authenticate against the installer
	AdminUser     string `yaml:"mapr_user" validate:"required"`
	AdminPassword string `yaml:"mapr_password"`
	// SSHUser is the account the installer uses to reach the hosts
	SSHUser string `yaml:"ssh_user" validate:"required"`
	// SSHKeyFile is the path to the private key of SSHUser
	SSHKeyFile string `yaml:"ssh_keyfile"`
	// SSHKey is the private key material, read from SSHKeyFile
	SSHKey string `yaml:"-"`
	// SSHPassword is used when no key is given
	SSHPassword string `yaml:"ssh_password"`
	// SSHPort is the port used by the preflight check
	SSHPort int `yaml:"ssh_port" validate:"gte=0,lte=65535"`
	// Hosts lists the cluster nodes, the first one hosts the console
	Hosts []string `yaml:"hosts"`
	// Disks lists the devices used for storage on every node
	Disks []string `yaml:"disks"`
	// PortalUser and PortalPassword register the cluster
	PortalUser     string `yaml:"portal_user"`
	PortalPassword string `yaml:"portal_password"`
	// StageUser and StagePassword authenticate trial license downloads
	StageUser     string `yaml:"stage_user"`
	StagePassword string `yaml:"stage_password"`
	// StageURL is the trial license repository
	StageURL string `yaml:"stage_url"`
}

// HiveConfig selects the hive metastore database
type HiveConfig struct {
	// Database is the name of an existing database or "local"
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Config is the complete driver configuration
type Config struct {
	ClusterTarget `yaml:",inline"`

	// InstallerURL is the address of the installer service
	InstallerURL string `yaml:"installer_url" validate:"required"`
	// StorageOnly omits compute scheduling services
	StorageOnly bool `yaml:"storage_only"`
	// Hive selects the hive metastore database
	Hive HiveConfig `yaml:"hive"`
	// EcoVersions maps add-on components to requested versions
	EcoVersions map[string]string `yaml:"eco_versions"`
	// Timeouts overrides phase wait budgets
	Timeouts map[string]PhaseTimeout `yaml:"timeouts"`
	// IgnoreWarnings continues after a check that completed with warnings
	IgnoreWarnings bool `yaml:"ignore_warnings"`
	// Preflight verifies SSH access to all hosts before the configuration is pushed
	Preflight bool `yaml:"preflight"`
	// Quiet suppresses progress output
	Quiet bool `yaml:"quiet"`
	// Yes answers all confirmations
	Yes bool `yaml:"yes"`
	// LogLevel is the console log level
	LogLevel string `yaml:"log_level"`
	// LogFile optionally receives a debug log
	LogFile string `yaml:"log_file"`
}

// PhaseTimeout overrides the wait budget of a single phase
type PhaseTimeout struct {
	Timeout  *Timeout `yaml:"timeout"`
	Interval *Timeout `yaml:"interval"`
}

// New returns a configuration with default values
func New() *Config {
	return &Config{
		ClusterTarget: ClusterTarget{
			Name:            defaults.ClusterName,
			PlatformVersion: defaults.PlatformVersion,
			Edition:         defaults.Edition,
			AdminUser:       defaults.AdminUser,
			AdminPassword:   defaults.AdminPassword,
			SSHUser:         defaults.SSHUser,
			SSHPort:         defaults.SSHPort,
			StageURL:        defaults.StageLicenseURL,
		},
		InstallerURL: defaults.InstallerURL,
		EcoVersions:  map[string]string{},
		LogLevel:     defaults.LogLevel,
	}
}

// CheckAndSetDefaults normalizes and validates the configuration
func (r *Config) CheckAndSetDefaults() error {
	edition, err := ParseEdition(r.Edition)
	if err != nil {
		return trace.Wrap(err)
	}
	r.Edition = edition
	if r.SSHPort == 0 {
		r.SSHPort = defaults.SSHPort
	}
	if r.StageURL == "" {
		r.StageURL = defaults.StageLicenseURL
	}
	r.InstallerURL = strings.TrimSuffix(r.InstallerURL, "/")

	var errors []error
	if err := validator.New().Struct(r); err != nil {
		errors = append(errors, trace.BadParameter("%v", err))
	}
	for component := range r.EcoVersions {
		if !overridable[component] {
			errors = append(errors, trace.BadParameter("unknown component %q", component))
		}
	}
	for phase, override := range r.Timeouts {
		if _, ok := phaseNames[phase]; !ok {
			errors = append(errors, trace.BadParameter("unknown phase %q", phase))
			continue
		}
		if override.Timeout != nil && override.Timeout.Duration <= 0 {
			errors = append(errors, trace.BadParameter("phase %q timeout must be positive", phase))
		}
		if override.Interval != nil && override.Interval.Duration <= 0 {
			errors = append(errors, trace.BadParameter("phase %q interval must be positive", phase))
		}
	}
	return trace.NewAggregate(errors...)
}

// Phases returns the default phase budgets with configured overrides applied
func (r *Config) Phases() defaults.Phases {
	phases := defaults.DefaultPhases()
	for name, override := range r.Timeouts {
		get, ok := phaseNames[name]
		if !ok {
			continue
		}
		phase := get(&phases)
		if override.Timeout != nil {
			phase.Timeout = override.Timeout.Duration
		}
		if override.Interval != nil {
			phase.Interval = override.Interval.Duration
		}
	}
	return phases
}

var phaseNames = map[string]func(*defaults.Phases) *defaults.Phase{
	"init":      func(p *defaults.Phases) *defaults.Phase { return &p.Init },
	"check":     func(p *defaults.Phases) *defaults.Phase { return &p.Check },
	"provision": func(p *defaults.Phases) *defaults.Phase { return &p.Provision },
	"install":   func(p *defaults.Phases) *defaults.Phase { return &p.Install },
	"license":   func(p *defaults.Phases) *defaults.Phase { return &p.License },
	"complete":  func(p *defaults.Phases) *defaults.Phase { return &p.Complete },
	"uninstall": func(p *defaults.Phases) *defaults.Phase { return &p.Uninstall },
}

var overridable = map[string]bool{
	constants.ComponentHBase: true,
	constants.ComponentHive:  true,
	constants.ComponentSpark: true,
	constants.ComponentKafka: true,
	constants.ComponentPig:   true,
	constants.ComponentDrill: true,
	constants.ComponentHue:   true,
	constants.ComponentOozie: true,
}

// ParseEdition converts an edition or its marketing name to the license class
func ParseEdition(edition string) (string, error) {
	switch strings.ToLower(edition) {
	case "", "m3", "community":
		return constants.EditionCommunity, nil
	case "m5", "enterprise":
		return constants.EditionEnterprise, nil
	case "m7", "database":
		return constants.EditionDatabase, nil
	}
	return "", trace.BadParameter("unknown edition %q, expected one of M3, M5, M7", edition)
}

// ParseEcoVersions parses a list of component=version pairs
func ParseEcoVersions(args []string) (map[string]string, error) {
	versions := make(map[string]string, len(args))
	for _, arg := range args {
		split := withArgs.FindStringSubmatch(arg)
		if len(split) != 3 {
			return nil, trace.BadParameter("expected component=version, got %q", arg)
		}
		versions[split[1]] = split[2]
	}
	return versions, nil
}

var withArgs = regexp.MustCompile(`^(\S+)=(.+)$`)

// Masked returns the configuration suitable for logging.
// Passwords are replaced and only the beginning of the SSH key is kept
func (r Config) Masked() Config {
	masked := r
	masked.AdminPassword = maskSecret(r.AdminPassword)
	masked.SSHPassword = maskSecret(r.SSHPassword)
	masked.PortalPassword = maskSecret(r.PortalPassword)
	masked.StagePassword = maskSecret(r.StagePassword)
	masked.Hive.Password = maskSecret(r.Hive.Password)
	masked.SSHKey = MaskKey(r.SSHKey)
	return masked
}

// MaskKey keeps the first 8 characters of key material
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) > 8 {
		key = key[:8]
	}
	return key + "..."
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return constants.MaskedSecret
}
