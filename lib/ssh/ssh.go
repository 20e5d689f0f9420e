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

package sshutils

import (
	"context"
	"strings"
	"time"

	"github.com/gravitational/installdriver/lib/defaults"
	"github.com/gravitational/installdriver/lib/wait"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// AuthMethods returns the SSH authentication methods for the given
// private key material or password. The key takes precedence
func AuthMethods(key, password string) ([]ssh.AuthMethod, error) {
	if key != "" {
		signer, err := ssh.ParsePrivateKey([]byte(key))
		if err != nil {
			return nil, trace.BadParameter("invalid SSH private key: %v", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if password != "" {
		return []ssh.AuthMethod{ssh.Password(password)}, nil
	}
	return nil, trace.BadParameter("either SSH key or password is required")
}

// ProbeConfig describes a host to probe
type ProbeConfig struct {
	// Addr is the host:port of the SSH server
	Addr string
	// User is the login user
	User string
	// Auth lists the authentication methods to try
	Auth []ssh.AuthMethod
	// Attempts is the number of connection attempts
	Attempts int
	// Delay is the interval between connection attempts
	Delay time.Duration
}

// Probe verifies that the host accepts the credentials by running a
// no-op command in a new session
func Probe(ctx context.Context, config ProbeConfig, log logrus.FieldLogger) error {
	if config.Attempts == 0 {
		config.Attempts = defaults.RetryAttempts
	}
	if config.Delay == 0 {
		config.Delay = defaults.RetryDelay
	}
	conf := &ssh.ClientConfig{
		User: config.User,
		Auth: config.Auth,
		// hosts are probed before the installer has distributed any keys
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         defaults.SSHConnectTimeout,
	}

	var client *ssh.Client
	retryer := wait.Retryer{
		Delay:       config.Delay,
		Attempts:    config.Attempts,
		FieldLogger: log,
	}
	err := retryer.Do(ctx, func() (err error) {
		client, err = ssh.Dial("tcp", config.Addr, conf)
		if err == nil {
			return nil
		}
		if isAuthError(err) {
			return wait.Abort(trace.AccessDenied("%v@%v rejected credentials: %v", config.User, config.Addr, err))
		}
		return trace.ConnectionProblem(err, "failed to connect to %v", config.Addr)
	})
	if err != nil {
		return trace.Wrap(err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return trace.Wrap(err)
	}
	defer session.Close()

	if err := session.Run("true"); err != nil {
		return trace.Wrap(err, "failed to run command on %v", config.Addr)
	}
	log.Debugf("Connected to %v@%v.", config.User, config.Addr)
	return nil
}

func isAuthError(err error) bool {
	if _, ok := err.(*ssh.ServerAuthError); ok {
		return true
	}
	// exhausted auth methods are reported as a plain error
	return strings.Contains(err.Error(), "unable to authenticate")
}
