package main

import (
	"github.com/gravitational/installdriver/lib/config"
	"github.com/gravitational/installdriver/lib/defaults"
	"github.com/gravitational/installdriver/lib/system"

	"github.com/gravitational/trace"
	"gopkg.in/alecthomas/kingpin.v2"
)

// flags holds the command line values.
// Empty values leave the configuration file and environment untouched
type flags struct {
	configFile string

	cluster         string
	platformVersion string
	edition         string
	adminUser       string
	adminPassword   string
	installerURL    string

	sshUser     string
	sshKeyFile  string
	sshPassword string
	sshPort     int

	portalUser     string
	portalPassword string
	stageUser      string
	stagePassword  string
	stageURL       string

	hosts     string
	hostsFile string
	disks     string
	disksFile string

	ecoVersions []string
	storageOnly bool

	hiveDB       string
	hiveUser     string
	hivePassword string

	ignoreWarnings bool
	preflight      bool
	quiet          bool
	yes            bool
	logLevel       string
	logFile        string
	pprofAddr      string
}

func registerFlags(app *kingpin.Application) *flags {
	var f flags
	app.Flag("config", "Path to the YAML configuration file.").StringVar(&f.configFile)

	app.Flag("cluster", "Cluster name.").PlaceHolder(defaults.ClusterName).StringVar(&f.cluster)
	app.Flag("mapr-version", "Version of the core platform services.").PlaceHolder(defaults.PlatformVersion).StringVar(&f.platformVersion)
	app.Flag("mapr-edition", "License edition: M3, M5 or M7.").PlaceHolder(defaults.Edition).StringVar(&f.edition)
	app.Flag("mapr-user", "Cluster administrator, also used to authenticate against the installer.").PlaceHolder(defaults.AdminUser).StringVar(&f.adminUser)
	app.Flag("mapr-password", "Cluster administrator password.").StringVar(&f.adminPassword)
	app.Flag("installer-url", "Installer service address.").PlaceHolder(defaults.InstallerURL).StringVar(&f.installerURL)

	app.Flag("ssh-user", "Account the installer uses to reach the hosts.").PlaceHolder(defaults.SSHUser).StringVar(&f.sshUser)
	app.Flag("ssh-keyfile", "Private key of the SSH user.").StringVar(&f.sshKeyFile)
	app.Flag("ssh-password", "Password of the SSH user, used when no key is given.").StringVar(&f.sshPassword)
	app.Flag("ssh-port", "SSH port used by the preflight check.").IntVar(&f.sshPort)

	app.Flag("portal-user", "Portal account the cluster is registered with.").StringVar(&f.portalUser)
	app.Flag("portal-password", "Portal account password.").StringVar(&f.portalPassword)
	app.Flag("stage-user", "Account used to download a trial license.").StringVar(&f.stageUser)
	app.Flag("stage-password", "Trial license account password.").StringVar(&f.stagePassword)
	app.Flag("stage-url", "Trial license repository.").Hidden().StringVar(&f.stageURL)

	app.Flag("hosts", "Comma-separated list of cluster hosts.").StringVar(&f.hosts)
	app.Flag("hosts-file", "File listing cluster hosts, one per line.").StringVar(&f.hostsFile)
	app.Flag("disks", "Comma-separated list of storage devices.").StringVar(&f.disks)
	app.Flag("disks-file", "File listing storage devices, one per line.").StringVar(&f.disksFile)

	app.Flag("eco-version", "Add-on version as component=version, 'none' skips the component. Can be repeated.").StringsVar(&f.ecoVersions)
	app.Flag("storage-only", "Do not install compute scheduling services.").BoolVar(&f.storageOnly)

	app.Flag("hive-db", "Hive metastore database, 'local' creates one.").StringVar(&f.hiveDB)
	app.Flag("hive-user", "Hive metastore database user.").StringVar(&f.hiveUser)
	app.Flag("hive-password", "Hive metastore database password.").StringVar(&f.hivePassword)

	app.Flag("ignore-warnings", "Continue after a check that completed with warnings.").BoolVar(&f.ignoreWarnings)
	app.Flag("preflight", "Verify SSH access to all hosts before pushing the configuration.").BoolVar(&f.preflight)
	app.Flag("quiet", "Only report warnings and errors.").Short('q').BoolVar(&f.quiet)
	app.Flag("yes", "Do not ask for confirmation.").Short('y').BoolVar(&f.yes)
	app.Flag("log-level", "Console log level.").Short('l').PlaceHolder(defaults.LogLevel).StringVar(&f.logLevel)
	app.Flag("log-file", "File to write a debug log to.").StringVar(&f.logFile)
	app.Flag("pprof-addr", "Address to serve runtime profiles on.").Hidden().StringVar(&f.pprofAddr)
	return &f
}

// load builds the configuration from defaults, the configuration file,
// the environment and the command line, in increasing precedence
func (f *flags) load() (*config.Config, error) {
	cfg := config.New()
	if f.configFile != "" {
		if err := config.LoadFile(f.configFile, cfg); err != nil {
			return nil, trace.Wrap(err)
		}
	}
	if err := config.ParseEnv(cfg); err != nil {
		return nil, trace.Wrap(err)
	}
	if err := f.apply(cfg); err != nil {
		return nil, trace.Wrap(err)
	}
	err := cfg.ReadSources(config.Sources{
		HostsFile:  f.hostsFile,
		DisksFile:  f.disksFile,
		SSHKeyFile: f.sshKeyFile,
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if err := cfg.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return cfg, nil
}

func (f *flags) apply(cfg *config.Config) error {
	for _, s := range []struct {
		value  string
		target *string
	}{
		{f.cluster, &cfg.Name},
		{f.platformVersion, &cfg.PlatformVersion},
		{f.edition, &cfg.Edition},
		{f.adminUser, &cfg.AdminUser},
		{f.adminPassword, &cfg.AdminPassword},
		{f.installerURL, &cfg.InstallerURL},
		{f.sshUser, &cfg.SSHUser},
		{f.sshPassword, &cfg.SSHPassword},
		{f.portalUser, &cfg.PortalUser},
		{f.portalPassword, &cfg.PortalPassword},
		{f.stageUser, &cfg.StageUser},
		{f.stagePassword, &cfg.StagePassword},
		{f.stageURL, &cfg.StageURL},
		{f.hiveDB, &cfg.Hive.Database},
		{f.hiveUser, &cfg.Hive.User},
		{f.hivePassword, &cfg.Hive.Password},
		{f.logLevel, &cfg.LogLevel},
		{f.logFile, &cfg.LogFile},
	} {
		if s.value != "" {
			*s.target = s.value
		}
	}
	if f.sshPort != 0 {
		cfg.SSHPort = f.sshPort
	}
	if f.hosts != "" {
		cfg.Hosts = system.SplitList(f.hosts)
	}
	if f.disks != "" {
		cfg.Disks = system.SplitList(f.disks)
	}

	versions, err := config.ParseEcoVersions(f.ecoVersions)
	if err != nil {
		return trace.Wrap(err)
	}
	if cfg.EcoVersions == nil {
		cfg.EcoVersions = make(map[string]string, len(versions))
	}
	for component, version := range versions {
		cfg.EcoVersions[component] = version
	}

	cfg.StorageOnly = cfg.StorageOnly || f.storageOnly
	cfg.IgnoreWarnings = cfg.IgnoreWarnings || f.ignoreWarnings
	cfg.Preflight = cfg.Preflight || f.preflight
	cfg.Quiet = cfg.Quiet || f.quiet
	cfg.Yes = cfg.Yes || f.yes
	return nil
}
