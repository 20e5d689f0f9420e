package installer_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gravitational/installdriver/lib/installer"
	"github.com/gravitational/installdriver/lib/installer/installertest"

	"github.com/google/go-cmp/cmp"
	"github.com/gravitational/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingTransport struct {
	calls int
}

func (r *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	r.calls++
	return nil, errors.New("connection refused")
}

func newTestClient(t *testing.T, srv *installertest.Server) *installer.Client {
	client, err := installer.NewClient(installer.Config{URL: srv.URL, User: srv.User, Password: srv.Password})
	require.NoError(t, err)
	return client
}

func TestGetRetriesConnectionFailures(t *testing.T) {
	transport := &failingTransport{}
	client, err := installer.NewClient(installer.Config{
		URL:        "https://installer.example.com:9443",
		User:       "mapr",
		HTTPClient: &http.Client{Transport: transport},
	})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), client.Endpoint("process"), url.Values{})
	require.Error(t, err)
	assert.True(t, trace.IsConnectionProblem(err), "expected connection problem, got %v", err)
	assert.Equal(t, 5, transport.calls)
}

func TestPatchIsNotRetried(t *testing.T) {
	transport := &failingTransport{}
	client, err := installer.NewClient(installer.Config{
		URL:        "https://installer.example.com:9443",
		User:       "mapr",
		HTTPClient: &http.Client{Transport: transport},
	})
	require.NoError(t, err)

	_, err = client.Patch(context.Background(), client.Endpoint("config"), map[string]string{"cluster_name": "c"})
	require.Error(t, err)
	assert.Equal(t, 1, transport.calls)
}

func TestGetDoesNotRetryHTTPErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	client, err := installer.NewClient(installer.Config{URL: srv.URL, User: "mapr"})
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), client.Endpoint("process"), url.Values{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Code())
	assert.Equal(t, 1, calls)
}

func TestPatchReturnsErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		http.Error(w, "invalid attribute", http.StatusBadRequest)
	}))
	defer srv.Close()
	client, err := installer.NewClient(installer.Config{URL: srv.URL, User: "mapr"})
	require.NoError(t, err)

	resp, err := client.Patch(context.Background(), client.Endpoint("config"), map[string]string{"foo": "bar"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code())
}

func TestRequestsAreAuthenticated(t *testing.T) {
	srv := installertest.New("mapr", "secret")
	defer srv.Close()

	client, err := installer.NewClient(installer.Config{URL: srv.URL, User: "mapr", Password: "wrong"})
	require.NoError(t, err)
	_, err = client.GetProcess(context.Background())
	require.Error(t, err)
	assert.True(t, trace.IsAccessDenied(err), "expected access denied, got %v", err)

	process, err := newTestClient(t, srv).GetProcess(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "INIT", process.State)
}

func TestResourceAPI(t *testing.T) {
	srv := installertest.New("mapr", "MapR")
	defer srv.Close()
	srv.AddService("mapr-webserver", "5.1.0", 8443)
	srv.PlaceService("mapr-webserver-5.1.0", "node1", "node2")
	srv.AddGroup("DATA", "7", "node1")
	ctx := context.Background()
	client := newTestClient(t, srv)

	available, err := client.ServiceAvailable(ctx, "webserver", "5.1.0")
	require.NoError(t, err)
	assert.True(t, available)
	available, err = client.ServiceAvailable(ctx, "webserver", "4.0.0")
	require.NoError(t, err)
	assert.False(t, available)

	service, err := client.FindService(ctx, "webserver", "5.1.0")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]string{"node1:8443", "node2:8443"}, service.URLs()))

	require.NoError(t, client.SetServiceHosts(ctx, "webserver", "5.1.0", []string{"node3"}))
	hosts, err := client.GetServiceHosts(ctx, "webserver", "5.1.0")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]string{"node3"}, hosts))

	groups, err := client.FindGroups(ctx, "DATA")
	require.NoError(t, err)
	require.Equal(t, 1, groups.Count)
	assert.Equal(t, "7", groups.Resources[0].ID.String())
	require.NoError(t, client.SetGroupHosts(ctx, "7", []string{"node1", "node2"}))
	hosts, err = client.GetGroupHosts(ctx, "7")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]string{"node1", "node2"}, hosts))

	require.NoError(t, client.UpdateConfig(ctx, map[string]interface{}{"hosts": []string{"node1"}}))
	config, err := client.GetConfig(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]string{"node1"}, config.Hosts))
	assert.Contains(t, config.Raw, "hosts")

	require.NoError(t, client.AddHost(ctx, "node4"))
	list, err := client.FindHosts(ctx, "node4")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)

	require.NoError(t, client.RequestState(ctx, "CHECKING"))
	process, err := client.GetProcess(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CHECKING", process.State)
}

func TestScalarAcceptsNumbersAndStrings(t *testing.T) {
	var groups installer.GroupList
	require.NoError(t, json.Unmarshal([]byte(`{"count":2,"resources":[{"id":3,"hosts":[]},{"id":"x1","hosts":["a"]}]}`), &groups))
	assert.Equal(t, "3", groups.Resources[0].ID.String())
	assert.Equal(t, "x1", groups.Resources[1].ID.String())
}

func TestFetchTrialLicense(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, _ := r.BasicAuth()
		if user != "stage" || password != "pass" {
			http.Error(w, "denied", http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/LatestDemoLicense-M5.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("LICENSE-TEXT"))
	}))
	defer srv.Close()
	ctx := context.Background()

	license, err := installer.FetchTrialLicense(ctx, installer.LicenseSource{URL: srv.URL, User: "stage", Password: "pass"}, "M5")
	require.NoError(t, err)
	assert.Equal(t, "LICENSE-TEXT", license)

	_, err = installer.FetchTrialLicense(ctx, installer.LicenseSource{URL: srv.URL, User: "stage", Password: "pass"}, "M7")
	assert.True(t, trace.IsNotFound(err), "expected not found, got %v", err)

	_, err = installer.FetchTrialLicense(ctx, installer.LicenseSource{URL: srv.URL, User: "stage", Password: "nope"}, "M5")
	assert.Error(t, err)
}
