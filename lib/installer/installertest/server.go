// Package installertest implements an in-process installer service for tests
package installertest

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/gravitational/installdriver/lib/installer"
)

// Request is a mutating request received by the server
type Request struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// Server is a fake installer.
// Process states are scripted: every requested transition replays the
// sequence registered with Script, one state per process query
type Server struct {
	*httptest.Server

	User     string
	Password string

	mu        sync.Mutex
	config    map[string]interface{}
	states    []string
	scripts   map[string][]string
	status    string
	catalog   map[string]map[string][]int
	placement map[string][]string
	groups    map[string]*group
	hosts     map[string]installer.Host
	log       string
	requests  []Request
}

type group struct {
	id    string
	hosts []string
}

// New starts a new TLS installer with the process in INIT
func New(user, password string) *Server {
	s := &Server{
		User:      user,
		Password:  password,
		config:    map[string]interface{}{},
		states:    []string{"INIT"},
		scripts:   map[string][]string{},
		catalog:   map[string]map[string][]int{},
		placement: map[string][]string{},
		groups:    map[string]*group{},
		hosts:     map[string]installer.Host{},
	}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(s.serve))
	return s
}

// Script registers the states reported after target is requested
func (s *Server) Script(target string, states ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[target] = states
}

// SetStates replaces the pending process state sequence
func (s *Server) SetStates(states ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = states
}

// SetStatus sets the process status message
func (s *Server) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// AddService adds key at version to the catalog with optional UI ports
func (s *Server) AddService(key, version string, ports ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalog[key] == nil {
		s.catalog[key] = map[string][]int{}
	}
	s.catalog[key][version] = ports
}

// PlaceService sets the hosts of the service key-version
func (s *Server) PlaceService(keyVersion string, hosts ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placement[keyVersion] = hosts
}

// AddGroup registers a host group
func (s *Server) AddGroup(label, id string, hosts ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[label] = &group{id: id, hosts: hosts}
}

// GroupHosts returns the members of the group with label
func (s *Server) GroupHosts(label string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[label]; ok {
		return append([]string(nil), g.hosts...)
	}
	return nil
}

// ServiceHosts returns the placement of the service key-version
func (s *Server) ServiceHosts(keyVersion string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.placement[keyVersion]...)
}

// SetHost sets the installer view of a host
func (s *Server) SetHost(host installer.Host) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts[host.ID] = host
}

// SetLog sets the process log text
func (s *Server) SetLog(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = text
}

// SetConfig sets a configuration attribute
func (s *Server) SetConfig(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config[key] = value
}

// Config returns a copy of the configuration document
func (s *Server) Config() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	config := make(map[string]interface{}, len(s.config))
	for k, v := range s.config {
		config[k] = v
	}
	return config
}

// Requests returns mutating requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// ConfigKeys returns the attribute names of every configuration PATCH in order.
// Attributes sent in the same request are joined with a comma
func (s *Server) ConfigKeys() []string {
	var keys []string
	for _, r := range s.Requests() {
		if r.Method != http.MethodPatch || r.Path != "/api/config" {
			continue
		}
		var names []string
		for k := range r.Body {
			names = append(names, k)
		}
		sort.Strings(names)
		keys = append(keys, strings.Join(names, ","))
	}
	return keys
}

// Patches returns the number of PATCH requests sent to path
func (s *Server) Patches(path string) int {
	var count int
	for _, r := range s.Requests() {
		if r.Method == http.MethodPatch && r.Path == path {
			count++
		}
	}
	return count
}

// RequestedStates returns the process transitions requested so far
func (s *Server) RequestedStates() []string {
	var states []string
	for _, r := range s.Requests() {
		if r.Method == http.MethodPatch && r.Path == "/api/process" {
			states = append(states, fmt.Sprint(r.Body["state"]))
		}
	}
	return states
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	user, password, ok := r.BasicAuth()
	if !ok || user != s.User || password != s.Password {
		http.Error(w, "access denied", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var body map[string]interface{}
	if r.Method == http.MethodPatch || r.Method == http.MethodPost {
		data, _ := ioutil.ReadAll(r.Body)
		if err := json.Unmarshal(data, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/config":
		if r.Method == http.MethodPatch {
			for k, v := range body {
				s.config[k] = v
			}
		}
		writeJSON(w, s.config)
	case path == "/api/process":
		if r.Method == http.MethodPatch {
			state := fmt.Sprint(body["state"])
			if script, ok := s.scripts[state]; ok {
				s.states = append([]string(nil), script...)
			} else {
				s.states = []string{state}
			}
			writeJSON(w, map[string]string{"state": state})
			return
		}
		state := "INIT"
		if len(s.states) != 0 {
			state = s.states[0]
		}
		if len(s.states) > 1 {
			s.states = s.states[1:]
		}
		writeJSON(w, installer.Process{State: state, Status: s.status})
	case path == "/api/process/log":
		w.Write([]byte(s.log))
	case path == "/api/services":
		s.findServices(w, r)
	case strings.HasPrefix(path, "/api/services/"):
		key := strings.TrimPrefix(path, "/api/services/")
		if r.Method == http.MethodPatch {
			s.placement[key] = toStrings(body["hosts"])
		}
		writeJSON(w, map[string][]string{"hosts": s.placement[key]})
	case path == "/api/groups":
		s.findGroups(w, r)
	case strings.HasPrefix(path, "/api/groups/"):
		id := strings.TrimPrefix(path, "/api/groups/")
		for _, g := range s.groups {
			if g.id != id {
				continue
			}
			if r.Method == http.MethodPatch {
				g.hosts = toStrings(body["hosts"])
			}
			writeJSON(w, map[string]interface{}{"id": g.id, "hosts": g.hosts})
			return
		}
		http.Error(w, "group not found", http.StatusNotFound)
	case path == "/api/hosts":
		if r.Method == http.MethodPost {
			id := fmt.Sprint(body["id"])
			s.hosts[id] = installer.Host{ID: id}
			writeJSON(w, s.hosts[id])
			return
		}
		var list installer.HostList
		if host, ok := s.hosts[r.URL.Query().Get("id")]; ok {
			list.Count = 1
			list.Resources = []installer.Host{host}
		}
		writeJSON(w, list)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) findServices(w http.ResponseWriter, r *http.Request) {
	name, version := r.URL.Query().Get("name"), r.URL.Query().Get("version")
	var list struct {
		Count     int                      `json:"count"`
		Resources []map[string]interface{} `json:"resources"`
	}
	list.Resources = []map[string]interface{}{}
	if ports, ok := s.catalog[name][version]; ok {
		resource := map[string]interface{}{
			"name":    name,
			"version": version,
			"hosts":   s.placement[name+"-"+version],
		}
		if len(ports) != 0 {
			resource["ui_ports"] = ports
		}
		list.Count = 1
		list.Resources = append(list.Resources, resource)
	}
	writeJSON(w, list)
}

func (s *Server) findGroups(w http.ResponseWriter, r *http.Request) {
	var list struct {
		Count     int                      `json:"count"`
		Resources []map[string]interface{} `json:"resources"`
	}
	list.Resources = []map[string]interface{}{}
	label := r.URL.Query().Get("label")
	if g, ok := s.groups[label]; ok {
		list.Count = 1
		list.Resources = append(list.Resources, map[string]interface{}{
			"id": g.id, "label": label, "hosts": g.hosts,
		})
	}
	writeJSON(w, list)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func toStrings(v interface{}) []string {
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	return out
}
