package manifest

import (
	"context"
	"strings"

	"github.com/gravitational/installdriver/lib/constants"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Catalog reports which service versions the installer offers
type Catalog interface {
	// ServiceAvailable returns true if the installer can install component at version
	ServiceAvailable(ctx context.Context, component, version string) (bool, error)
}

// HiveDatabase selects the hive metastore database.
// An empty or "local" name requests a local MySQL instance
type HiveDatabase struct {
	Name     string
	User     string
	Password string
}

// IsLocal returns true if the metastore should be created locally
func (r HiveDatabase) IsLocal() bool {
	return r.Name == "" || r.Name == "local"
}

// BuilderConfig configures a manifest builder
type BuilderConfig struct {
	// PlatformVersion is the version of the core platform services
	PlatformVersion string
	// StorageOnly omits compute scheduling services
	StorageOnly bool
	// Catalog verifies requested add-on versions
	Catalog Catalog
	// AdminUser and AdminPassword are the default metastore credentials
	AdminUser     string
	AdminPassword string
	// Hive selects the hive metastore database
	Hive HiveDatabase
	// FieldLogger specifies the log sink
	log.FieldLogger
}

// CheckAndSetDefaults validates the configuration
func (r *BuilderConfig) CheckAndSetDefaults() error {
	if r.PlatformVersion == "" {
		return trace.BadParameter("platform version is required")
	}
	if r.Catalog == nil {
		return trace.BadParameter("service catalog is required")
	}
	if r.FieldLogger == nil {
		r.FieldLogger = log.StandardLogger()
	}
	return nil
}

// Builder assembles the service manifest of a cluster
type Builder struct {
	BuilderConfig
	// Manifest is the manifest being built
	Manifest Manifest
	// Defaults are the add-on defaults of the platform version
	Defaults EcoDefaults
}

// NewBuilder returns a builder initialized with the core platform services
func NewBuilder(config BuilderConfig) (*Builder, error) {
	if err := config.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	defaults, err := DefaultsFor(config.PlatformVersion)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &Builder{
		BuilderConfig: config,
		Manifest:      NewCoreManifest(config.PlatformVersion, config.StorageOnly),
		Defaults:      defaults,
	}, nil
}

// ApplyEcoDefaults adds every add-on that has a default version
func (b *Builder) ApplyEcoDefaults(ctx context.Context) error {
	for _, component := range applyOrder {
		version, ok := b.Defaults[component]
		if !ok || version == "" {
			continue
		}
		if err := b.Add(ctx, component, version); err != nil {
			return trace.Wrap(err)
		}
	}
	return nil
}

// ApplyOverrides applies explicit component versions on top of the defaults
func (b *Builder) ApplyOverrides(ctx context.Context, overrides map[string]string) error {
	for _, component := range OverrideOrder {
		version, ok := overrides[component]
		if !ok {
			continue
		}
		if err := b.Add(ctx, component, version); err != nil {
			return trace.Wrap(err)
		}
	}
	return nil
}

// OverrideOrder lists the components that accept explicit versions in
// the order they are applied
var OverrideOrder = []string{
	constants.ComponentHBase,
	constants.ComponentHive,
	constants.ComponentSpark,
	constants.ComponentKafka,
	constants.ComponentPig,
	constants.ComponentDrill,
	constants.ComponentHue,
	constants.ComponentOozie,
}

// Add adds component at version dispatching to the component specific method
func (b *Builder) Add(ctx context.Context, component, version string) error {
	switch component {
	case constants.ComponentHBase:
		b.AddMapRDB(ctx, version)
	case constants.ComponentHive:
		return trace.Wrap(b.AddHive(ctx, version))
	case constants.ComponentSpark:
		b.AddSpark(ctx, version)
	default:
		b.AddEco(ctx, component, version)
	}
	return nil
}

// AddMapRDB adds the hbase services
func (b *Builder) AddMapRDB(ctx context.Context, version string) {
	if isNone(version) {
		b.Manifest.Remove(constants.ServiceHBase, constants.ServiceHBaseThrift, constants.ServiceLibHBase)
		return
	}
	version, ok := b.resolve(ctx, constants.ComponentHBase, version)
	if !ok {
		return
	}
	b.Manifest.Set(constants.ServiceHBase, version)
	b.Manifest.Set(constants.ServiceLibHBase, version)
}

// AddHive adds the hive services with a metastore database.
// A local database also adds the MySQL service
func (b *Builder) AddHive(ctx context.Context, version string) error {
	if isNone(version) {
		b.Manifest.Remove(constants.ServiceMySQL, constants.ServiceHiveClient,
			constants.ServiceHiveMetastore, constants.ServiceHiveServer)
		return nil
	}
	version, ok := b.resolve(ctx, constants.ComponentHive, version)
	if !ok {
		return nil
	}
	db := Database{
		Type:     constants.DatabaseTypeMySQL,
		User:     b.Hive.User,
		Password: b.Hive.Password,
	}
	if db.User == "" {
		db.User = b.AdminUser
		db.Password = b.AdminPassword
	}
	if b.Hive.IsLocal() {
		db.Create = true
		db.Name = "hive_" + strings.Replace(version, ".", "", -1)
	} else {
		db.Name = b.Hive.Name
	}
	if err := b.Manifest.SetWithDatabase(constants.ServiceHiveMetastore, version, db); err != nil {
		return trace.Wrap(err)
	}
	if b.Hive.IsLocal() {
		b.Manifest[Key(constants.ServiceMySQL)] = Service{Enabled: true}
	}
	b.Manifest.Set(constants.ServiceHiveClient, version)
	b.Manifest.Set(constants.ServiceHiveServer, version)
	return nil
}

// AddSpark adds the spark services
func (b *Builder) AddSpark(ctx context.Context, version string) {
	if isNone(version) {
		b.Manifest.Remove(constants.ServiceSparkClient, constants.ServiceSparkHistory)
		return
	}
	version, ok := b.resolve(ctx, constants.ComponentSpark, version)
	if !ok {
		return
	}
	b.Manifest.Set(constants.ServiceSparkClient, version)
	b.Manifest.Set(constants.ServiceSparkHistory, version)
}

// AddEco adds a single-service add-on that needs no extra configuration
func (b *Builder) AddEco(ctx context.Context, component, version string) {
	if isNone(version) {
		b.Manifest.Remove(component)
		return
	}
	version, ok := b.resolve(ctx, component, version)
	if !ok {
		return
	}
	b.Manifest.Set(component, version)
}

// resolve returns the version of component to install.
// An empty version selects the default, a version missing from the
// catalog falls back to the default.
// Returns false if there is no version to fall back to
func (b *Builder) resolve(ctx context.Context, component, version string) (string, bool) {
	logger := b.WithField(constants.FieldService, component)
	fallback := b.Defaults.Default(component)
	if version == "" {
		if fallback == "" {
			logger.Warn("No default version, skipping.")
			return "", false
		}
		return fallback, true
	}
	available, err := b.Catalog.ServiceAvailable(ctx, component, version)
	if err != nil {
		logger.WithError(err).Warn("Failed to query service catalog.")
	}
	if available {
		return version, true
	}
	if fallback == "" {
		logger.Warnf("Version %v is not available and there is no default, skipping.", version)
		return "", false
	}
	if fallback != version {
		logger.Warnf("Version %v is not available, using %v.", version, fallback)
	}
	return fallback, true
}

func isNone(version string) bool {
	return strings.EqualFold(version, constants.VersionNone)
}
