package installer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gravitational/trace"
)

// Process is the installer process state document
type Process struct {
	// State is the current lifecycle phase
	State string `json:"state"`
	// Status is a human-readable progress message
	Status string `json:"status"`
}

// ServiceList is the result of a service catalog query
type ServiceList struct {
	Count     int               `json:"count"`
	Resources []ServiceResource `json:"resources"`
}

// ServiceResource describes a catalog service and its placement
type ServiceResource struct {
	Name    string   `json:"name,omitempty"`
	Version string   `json:"version,omitempty"`
	Hosts   []string `json:"hosts"`
	UIPorts []Scalar `json:"ui_ports,omitempty"`
}

// URLs returns host:port for every UI port of the service, or just
// the host names if the service has no UI
func (r ServiceResource) URLs() []string {
	var urls []string
	for _, host := range r.Hosts {
		if len(r.UIPorts) == 0 {
			urls = append(urls, host)
			continue
		}
		for _, port := range r.UIPorts {
			urls = append(urls, fmt.Sprintf("%v:%v", host, port))
		}
	}
	return urls
}

// GroupList is the result of a host group lookup
type GroupList struct {
	Count     int     `json:"count"`
	Resources []Group `json:"resources"`
}

// Group is a named set of hosts sharing the same service layout
type Group struct {
	ID    Scalar   `json:"id"`
	Label string   `json:"label,omitempty"`
	Hosts []string `json:"hosts"`
}

// HostList is the result of a host lookup
type HostList struct {
	Count     int    `json:"count"`
	Resources []Host `json:"resources"`
}

// Host is the installer view of a single cluster node
type Host struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Status string `json:"status"`
}

// placement is the host membership document of groups and services
type placement struct {
	Hosts []string `json:"hosts"`
}

// ClusterConfig is the installer configuration document.
// Only the attributes the driver reads back are decoded,
// the complete document is kept in Raw
type ClusterConfig struct {
	Hosts []string               `json:"hosts"`
	Disks []string               `json:"disks"`
	Raw   map[string]interface{} `json:"-"`
}

// UnmarshalJSON decodes the known attributes and keeps the complete document
func (r *ClusterConfig) UnmarshalJSON(data []byte) error {
	type known ClusterConfig
	var config known
	if err := json.Unmarshal(data, &config); err != nil {
		return trace.Wrap(err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return trace.Wrap(err)
	}
	*r = ClusterConfig(config)
	r.Raw = raw
	return nil
}

// Scalar is an identifier the installer may encode either as a JSON
// string or as a JSON number
type Scalar string

// UnmarshalJSON accepts both quoted and bare scalar values
func (r *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return trace.Wrap(err)
		}
		*r = Scalar(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return trace.BadParameter("expected string or number, got %s", data)
	}
	*r = Scalar(n.String())
	return nil
}

// String returns the identifier as text
func (r Scalar) String() string {
	return string(r)
}
