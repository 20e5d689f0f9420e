package deploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/gravitational/installdriver/lib/constants"

	"github.com/gravitational/trace"
	"github.com/olekukonko/tablewriter"
)

// layoutServices are the core services shown in the service layout
var layoutServices = []string{
	constants.ServiceZookeeper,
	constants.ServiceCLDB,
	constants.ServiceFileServer,
	constants.ServiceNodeManager,
	constants.ServiceResourceManager,
}

// PrintProcessStatus writes the installer status and the status of every
// host that is in the same state as the installer or has failed
func (d *Driver) PrintProcessStatus(ctx context.Context) error {
	process, err := d.Installer.GetProcess(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	fmt.Fprintf(d.Out, "Installer status : %v\n", process.Status)

	for _, host := range d.Target.Hosts {
		hosts, err := d.Installer.FindHosts(ctx, host)
		if err != nil {
			d.WithError(err).WithField(constants.FieldHost, host).Debug("Failed to query host.")
			continue
		}
		if len(hosts.Resources) == 0 {
			continue
		}
		h := hosts.Resources[0]
		if h.State == process.State || constants.IsErrorState(h.State) {
			fmt.Fprintf(d.Out, "Host (%v) status : %v\n", host, h.Status)
		}
	}
	fmt.Fprintf(d.Out, "Check %v/api/process/log for additional details\n", d.InstallerURL)
	return nil
}

// PrintProcessLog writes the raw installer execution log
func (d *Driver) PrintProcessLog(ctx context.Context) error {
	text, err := d.Installer.ProcessLog(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	fmt.Fprintf(d.Out, "Process Log:\n%v\n", text)
	return nil
}

// PrintSuccessURL writes the address of the installation summary
func (d *Driver) PrintSuccessURL() {
	fmt.Fprintf(d.Out, "Installer service available at %v/#/complete\n", d.InstallerURL)
}

// PrintConsoleURLs writes the management console address of every webserver host
func (d *Driver) PrintConsoleURLs(ctx context.Context) error {
	hosts, err := d.Installer.GetServiceHosts(ctx, constants.ServiceWebServer, d.Target.PlatformVersion)
	if err != nil {
		return trace.Wrap(err)
	}
	fmt.Fprintln(d.Out, "Management console(s) available at:")
	for _, host := range hosts {
		fmt.Fprintf(d.Out, "    https://%v:%v\n", host, constants.ConsolePort)
	}
	return nil
}

// PrintServiceLayout writes a table of the hosts every core service is placed on
func (d *Driver) PrintServiceLayout(ctx context.Context) error {
	var data [][]string
	for _, service := range layoutServices {
		hosts, err := d.Installer.GetServiceHosts(ctx, service, d.Target.PlatformVersion)
		if err != nil {
			return trace.Wrap(err)
		}
		data = append(data, []string{service, strings.Join(hosts, ",")})
	}

	fmt.Fprintln(d.Out, "Cluster Services Configuration:")
	table := tablewriter.NewWriter(d.Out)
	table.SetHeader([]string{"Service", "Hosts"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

// ServiceURLs returns the user interface addresses of component at version
func (d *Driver) ServiceURLs(ctx context.Context, component, version string) ([]string, error) {
	service, err := d.Installer.FindService(ctx, component, version)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return service.URLs(), nil
}
