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

package config

import (
	"time"

	"github.com/gravitational/trace"
)

// Timeout is a phase duration written in configuration files as "90m" or "5s"
type Timeout struct {
	time.Duration
}

// MarshalYAML writes the duration in its string form
func (d Timeout) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML parses a non-negative duration string
func (d *Timeout) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var data string
	if err := unmarshal(&data); err != nil {
		return trace.BadParameter("expected a duration such as 90m: %v", err)
	}
	dur, err := parseTimeout(data)
	if err != nil {
		return trace.Wrap(err)
	}
	d.Duration = dur
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	dur, err := time.ParseDuration(s)
	if err != nil {
		return 0, trace.BadParameter("cannot parse %q as duration: %v", s, err)
	}
	if dur < 0 {
		return 0, trace.BadParameter("duration %v must not be negative", s)
	}
	return dur, nil
}
