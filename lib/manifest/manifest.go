package manifest

import (
	"sort"

	"github.com/gravitational/installdriver/lib/constants"

	"github.com/gravitational/trace"
	"gopkg.in/go-playground/validator.v9"
)

// Manifest maps service keys to the services that should be installed.
// A service is removed by deleting its key, never by disabling it
type Manifest map[string]Service

// Service describes a single installable service.
// Database is only set for metastore-backed services
type Service struct {
	Enabled  bool      `json:"enabled"`
	Version  string    `json:"version,omitempty"`
	Database *Database `json:"database,omitempty"`
}

// Database describes the metastore database of a service
type Database struct {
	Type     string `json:"type" validate:"eq=MYSQL"`
	Create   bool   `json:"create"`
	Name     string `json:"name" validate:"required"`
	User     string `json:"user" validate:"required"`
	Password string `json:"password"`
}

// Check validates the database descriptor
func (r Database) Check() error {
	if err := validator.New().Struct(r); err != nil {
		return trace.BadParameter("invalid database %q: %v", r.Name, err)
	}
	return nil
}

// Key returns the manifest key of the named service
func Key(name string) string {
	return constants.ServicePrefix + name
}

// Set adds or replaces the named plain service at version
func (m Manifest) Set(name, version string) {
	m[Key(name)] = Service{Enabled: true, Version: version}
}

// SetWithDatabase adds or replaces the named metastore-backed service
func (m Manifest) SetWithDatabase(name, version string, db Database) error {
	if err := db.Check(); err != nil {
		return trace.Wrap(err)
	}
	m[Key(name)] = Service{Enabled: true, Version: version, Database: &db}
	return nil
}

// Remove deletes the named services, missing services are ignored
func (m Manifest) Remove(names ...string) {
	for _, name := range names {
		delete(m, Key(name))
	}
}

// Has returns true if the named service is present
func (m Manifest) Has(name string) bool {
	_, ok := m[Key(name)]
	return ok
}

// Version returns the version of the named service
func (m Manifest) Version(name string) string {
	return m[Key(name)].Version
}

// Keys returns the sorted list of service keys
func (m Manifest) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// NewCoreManifest returns the platform services at version.
// Compute scheduling services are left out for storage-only clusters
func NewCoreManifest(version string, storageOnly bool) Manifest {
	m := Manifest{}
	for _, name := range coreServices {
		m.Set(name, version)
	}
	if !storageOnly {
		for _, name := range computeServices {
			m.Set(name, version)
		}
	}
	m.Set(constants.ServiceNFS, version)
	return m
}

var coreServices = []string{
	constants.ServiceCore,
	constants.ServiceCLDB,
	constants.ServiceFileServer,
	constants.ServiceWebServer,
	constants.ServiceZookeeper,
}

var computeServices = []string{
	constants.ServiceNodeManager,
	constants.ServiceResourceManager,
	constants.ServiceHistoryServer,
}

// ComputeServices returns the names of the compute scheduling services
func ComputeServices() []string {
	return append([]string(nil), computeServices...)
}
