package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gravitational/installdriver/lib/constants"

	"github.com/gravitational/trace"
)

// GetConfig returns the current cluster configuration document
func (c *Client) GetConfig(ctx context.Context) (*ClusterConfig, error) {
	out, err := convertResponse(c.Get(ctx, c.Endpoint("config"), url.Values{}))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var config ClusterConfig
	if err := json.Unmarshal(out.Bytes(), &config); err != nil {
		return nil, trace.Wrap(err)
	}
	return &config, nil
}

// UpdateConfig patches the given attributes of the cluster configuration
func (c *Client) UpdateConfig(ctx context.Context, attrs map[string]interface{}) error {
	_, err := c.Patch(ctx, c.Endpoint("config"), attrs)
	return trace.Wrap(err)
}

// GetProcess returns the installer process state
func (c *Client) GetProcess(ctx context.Context) (*Process, error) {
	out, err := convertResponse(c.Get(ctx, c.Endpoint("process"), url.Values{}))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var process Process
	if err := json.Unmarshal(out.Bytes(), &process); err != nil {
		return nil, trace.Wrap(err)
	}
	return &process, nil
}

// RequestState asks the installer to transition its process to state
func (c *Client) RequestState(ctx context.Context, state string) error {
	_, err := c.Patch(ctx, c.Endpoint("process"), map[string]string{"state": state})
	return trace.Wrap(err)
}

// ProcessLog returns the raw installer execution log
func (c *Client) ProcessLog(ctx context.Context) (string, error) {
	out, err := convertResponse(c.Get(ctx, c.Endpoint("process", "log"), url.Values{}))
	if err != nil {
		return "", trace.Wrap(err)
	}
	return string(out.Bytes()), nil
}

// FindServices queries the service catalog for the service key at version
func (c *Client) FindServices(ctx context.Context, key, version string) (*ServiceList, error) {
	out, err := convertResponse(c.Get(ctx, c.Endpoint("services"), url.Values{
		"name":    []string{key},
		"version": []string{version},
	}))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var services ServiceList
	if err := json.Unmarshal(out.Bytes(), &services); err != nil {
		return nil, trace.Wrap(err)
	}
	return &services, nil
}

// ServiceAvailable returns true if the catalog offers component at version
func (c *Client) ServiceAvailable(ctx context.Context, component, version string) (bool, error) {
	services, err := c.FindServices(ctx, constants.ServicePrefix+component, version)
	if err != nil {
		return false, trace.Wrap(err)
	}
	return services.Count != 0, nil
}

// FindService returns the catalog entry of component at version
func (c *Client) FindService(ctx context.Context, component, version string) (*ServiceResource, error) {
	services, err := c.FindServices(ctx, constants.ServicePrefix+component, version)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if len(services.Resources) == 0 {
		return nil, trace.NotFound("service %v%v %v not found", constants.ServicePrefix, component, version)
	}
	return &services.Resources[0], nil
}

// GetServiceHosts returns the hosts component at version is placed on
func (c *Client) GetServiceHosts(ctx context.Context, component, version string) ([]string, error) {
	out, err := convertResponse(c.Get(ctx, c.serviceEndpoint(component, version), url.Values{}))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var service placement
	if err := json.Unmarshal(out.Bytes(), &service); err != nil {
		return nil, trace.Wrap(err)
	}
	return service.Hosts, nil
}

// SetServiceHosts replaces the placement of component at version
func (c *Client) SetServiceHosts(ctx context.Context, component, version string, hosts []string) error {
	_, err := c.Patch(ctx, c.serviceEndpoint(component, version), placement{Hosts: hosts})
	return trace.Wrap(err)
}

// FindGroups looks up host groups by label
func (c *Client) FindGroups(ctx context.Context, label string) (*GroupList, error) {
	out, err := convertResponse(c.Get(ctx, c.Endpoint("groups"), url.Values{"label": []string{label}}))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var groups GroupList
	if err := json.Unmarshal(out.Bytes(), &groups); err != nil {
		return nil, trace.Wrap(err)
	}
	return &groups, nil
}

// GetGroupHosts returns the members of the group with the given id
func (c *Client) GetGroupHosts(ctx context.Context, id string) ([]string, error) {
	out, err := convertResponse(c.Get(ctx, c.Endpoint("groups", id), url.Values{}))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var group placement
	if err := json.Unmarshal(out.Bytes(), &group); err != nil {
		return nil, trace.Wrap(err)
	}
	return group.Hosts, nil
}

// SetGroupHosts replaces the members of the group with the given id
func (c *Client) SetGroupHosts(ctx context.Context, id string, hosts []string) error {
	_, err := c.Patch(ctx, c.Endpoint("groups", id), placement{Hosts: hosts})
	return trace.Wrap(err)
}

// AddHost registers a new host with the installer
func (c *Client) AddHost(ctx context.Context, id string) error {
	_, err := c.Post(ctx, c.Endpoint("hosts"), map[string]string{"id": id})
	return trace.Wrap(err)
}

// FindHosts looks up hosts by id
func (c *Client) FindHosts(ctx context.Context, id string) (*HostList, error) {
	out, err := convertResponse(c.Get(ctx, c.Endpoint("hosts"), url.Values{"id": []string{id}}))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var hosts HostList
	if err := json.Unmarshal(out.Bytes(), &hosts); err != nil {
		return nil, trace.Wrap(err)
	}
	return &hosts, nil
}

func (c *Client) serviceEndpoint(component, version string) string {
	return c.Endpoint("services", fmt.Sprintf("%v%v-%v", constants.ServicePrefix, component, version))
}
