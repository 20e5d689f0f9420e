package constants

import "strings"

const (
	// FieldState defines a logging field to store the installer process state
	FieldState = "state"

	// FieldTarget defines a logging field to store the awaited process state
	FieldTarget = "target"

	// FieldHost defines a logging field to store the host a step applies to
	FieldHost = "host"

	// FieldService defines a logging field to store a manifest service key
	FieldService = "service"

	// FieldGroup defines a logging field to store a host group label
	FieldGroup = "group"

	// FieldRunID defines a logging field to correlate all messages of a single invocation
	FieldRunID = "run"
)

// Installer process states
const (
	StateInit         = "INIT"
	StateChecking     = "CHECKING"
	StateChecked      = "CHECKED"
	StateProvisioning = "PROVISIONING"
	StateProvisioned  = "PROVISIONED"
	StateInstalling   = "INSTALLING"
	StateInstalled    = "INSTALLED"
	StateRetrying     = "RETRYING"
	StateInstallError = "INSTALL_ERROR"
	StateLicensing    = "LICENSING"
	StateLicensed     = "LICENSED"
	StateCompleted    = "COMPLETED"
	StateUninstalling = "UNINSTALLING"
	StateUninstalled  = "UNINSTALLED"
)

// IsErrorState returns true if the state denotes a failed phase
func IsErrorState(state string) bool {
	return strings.HasSuffix(state, "ERROR")
}

// IsWarnState returns true if the state denotes a phase that completed with warnings
func IsWarnState(state string) bool {
	return strings.HasSuffix(state, "WARN")
}

// IsCheckState returns true for any state of the CHECK phase
func IsCheckState(state string) bool {
	return strings.HasPrefix(state, "CHECK")
}

const (
	// ServicePrefix namespaces every service key in the manifest
	ServicePrefix = "mapr-"

	ServiceCore            = "core"
	ServiceCLDB            = "cldb"
	ServiceFileServer      = "fileserver"
	ServiceWebServer       = "webserver"
	ServiceZookeeper       = "zookeeper"
	ServiceNodeManager     = "nodemanager"
	ServiceResourceManager = "resourcemanager"
	ServiceHistoryServer   = "historyserver"
	ServiceNFS             = "nfs"

	ServiceHBase         = "hbase"
	ServiceHBaseThrift   = "hbasethrift"
	ServiceLibHBase      = "libhbase"
	ServiceMySQL         = "mysql"
	ServiceHiveClient    = "hive-client"
	ServiceHiveServer    = "hiveserver2"
	ServiceHiveMetastore = "hivemetastore"
	ServiceSparkClient   = "spark-client"
	ServiceSparkHistory  = "spark-historyserver"
)

// Add-on component names as accepted on the command line
const (
	ComponentHBase = "hbase"
	ComponentKafka = "kafka"
	ComponentHive  = "hive"
	ComponentSpark = "spark"
	ComponentPig   = "pig"
	ComponentDrill = "drill"
	ComponentHue   = "hue"
	ComponentOozie = "oozie"

	// VersionNone requests removal of a component from the manifest
	VersionNone = "none"
)

// Host groups maintained by the installer
const (
	// GroupData is the label of the bulk-storage-capable host group
	GroupData = "DATA"
	// GroupClient is the label of the client-access host group
	GroupClient = "CLIENT"
)

// License editions
const (
	EditionCommunity  = "M3"
	EditionEnterprise = "M5"
	EditionDatabase   = "M7"
)

// DatabaseTypeMySQL is the only metastore database type supported by the installer
const DatabaseTypeMySQL = "MYSQL"

// ConsolePort is the port of the management console on webserver hosts
const ConsolePort = 8443

// MaskedSecret replaces passwords in log output
const MaskedSecret = "********"
