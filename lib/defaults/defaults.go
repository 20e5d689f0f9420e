package defaults

import "time"

const (
	// RetryDelay defines the interval between retry attempts
	RetryDelay = 5 * time.Second
	// RetryAttempts defines the maximum number of retry attempts
	RetryAttempts = 3
	// RetryMaxDelay caps the exponential backoff between retry attempts
	RetryMaxDelay = 30 * time.Second

	// GetAttempts defines how many times a GET request is issued before
	// a connection failure is reported to the caller
	GetAttempts = 5

	// DialTimeout bounds establishing a TCP connection to the installer
	DialTimeout = 30 * time.Second
	// IdleConnTimeout defines how long an idle installer connection is kept open
	IdleConnTimeout = 90 * time.Second

	// SSHConnectTimeout bounds a single SSH dial during preflight
	SSHConnectTimeout = 20 * time.Second
	// PreflightTimeout bounds the whole SSH preflight of all hosts
	PreflightTimeout = 2 * time.Minute
)

const (
	// InstallerURL is the address of the installer service
	InstallerURL = "https://localhost:9443"
	// StageLicenseURL is the location of trial licenses
	StageLicenseURL = "http://stage.mapr.com/license"

	ClusterName     = "MyCluster"
	PlatformVersion = "4.1.0"
	Edition         = "M3"
	AdminUser       = "mapr"
	AdminPassword   = "MapR"
	SSHUser         = "ec2-user"
	SSHPort         = 22
	LogLevel        = "info"
)

// Phase bounds waiting for the installer to arrive at a process state
type Phase struct {
	// Timeout is the total time budget of the phase
	Timeout time.Duration
	// Interval is the delay between two state checks
	Interval time.Duration
}

// Phases lists the wait budget for every state the driver waits for
type Phases struct {
	Init      Phase
	Check     Phase
	Provision Phase
	Install   Phase
	License   Phase
	Complete  Phase
	Uninstall Phase
}

// DefaultPhases returns the phase budgets used unless overridden in configuration
func DefaultPhases() Phases {
	return Phases{
		Init:      Phase{Timeout: 10 * time.Minute, Interval: 5 * time.Second},
		Check:     Phase{Timeout: 10 * time.Minute, Interval: 5 * time.Second},
		Provision: Phase{Timeout: 10 * time.Minute, Interval: 5 * time.Second},
		// installation of packages on all hosts takes a while
		Install:   Phase{Timeout: 90 * time.Minute, Interval: 20 * time.Second},
		License:   Phase{Timeout: 2 * time.Minute, Interval: 10 * time.Second},
		Complete:  Phase{Timeout: 10 * time.Second, Interval: 10 * time.Second},
		Uninstall: Phase{Timeout: 90 * time.Minute, Interval: 20 * time.Second},
	}
}
