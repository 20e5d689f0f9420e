package installer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gravitational/installdriver/lib/defaults"

	"github.com/gravitational/roundtrip"
	"github.com/gravitational/trace"
)

// LicenseSource describes the staging repository of trial licenses
type LicenseSource struct {
	// URL is the base address of the repository
	URL string
	// User and Password authenticate against the repository
	User     string
	Password string
	// HTTPClient optionally overrides the default client
	HTTPClient *http.Client
}

// FetchTrialLicense downloads the latest trial license for edition.
// A repository that does not answer with 200 OK yields a trace error
// the caller is expected to treat as non-fatal
func FetchTrialLicense(ctx context.Context, source LicenseSource, edition string) (string, error) {
	if source.URL == "" {
		source.URL = defaults.StageLicenseURL
	}
	params := []roundtrip.ClientParam{roundtrip.BasicAuth(source.User, source.Password)}
	if source.HTTPClient != nil {
		params = append(params, roundtrip.HTTPClient(source.HTTPClient))
	}
	client, err := roundtrip.NewClient(strings.TrimSuffix(source.URL, "/"), "", params...)
	if err != nil {
		return "", trace.Wrap(err)
	}
	out, err := client.Get(ctx, client.Endpoint(fmt.Sprintf("LatestDemoLicense-%v.txt", edition)), url.Values{})
	if err != nil {
		return "", trace.ConnectionProblem(err, "failed to reach license repository %v", source.URL)
	}
	if out.Code() != http.StatusOK {
		return "", trace.ReadError(out.Code(), out.Bytes())
	}
	return string(out.Bytes()), nil
}
