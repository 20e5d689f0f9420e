package main

import (
	"context"
	"fmt"
	"io"

	"github.com/gravitational/installdriver/lib/config"
	"github.com/gravitational/installdriver/lib/constants"
	"github.com/gravitational/installdriver/lib/deploy"
	"github.com/gravitational/installdriver/lib/installer"
	"github.com/gravitational/installdriver/lib/manifest"

	"github.com/gravitational/trace"
	"github.com/kr/pretty"
	log "github.com/sirupsen/logrus"
)

// environment is shared by all commands
type environment struct {
	config  *config.Config
	out     io.Writer
	confirm deploy.Confirm
	log.FieldLogger
}

// newDriver returns a driver for the configured installer.
// With withManifest set the service manifest is assembled from the catalog
func newDriver(ctx context.Context, env environment, withManifest bool) (*deploy.Driver, error) {
	cfg := env.config
	env.WithField("config", pretty.Sprint(cfg.Masked())).Debug("Loaded configuration.")

	client, err := installer.NewClient(installer.Config{
		URL:         cfg.InstallerURL,
		User:        cfg.AdminUser,
		Password:    cfg.AdminPassword,
		FieldLogger: env.FieldLogger,
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var services manifest.Manifest
	if withManifest {
		services, err = buildManifest(ctx, client, env)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		env.Debugf("Service manifest: %# v", pretty.Formatter(services))
	}

	return deploy.New(deploy.Config{
		Installer:      client,
		InstallerURL:   cfg.InstallerURL,
		Target:         cfg.ClusterTarget,
		Manifest:       services,
		Phases:         cfg.Phases(),
		IgnoreWarnings: cfg.IgnoreWarnings,
		Quiet:          cfg.Quiet,
		Confirm:        env.confirm,
		Out:            env.out,
		FieldLogger:    env.FieldLogger,
	})
}

func buildManifest(ctx context.Context, catalog manifest.Catalog, env environment) (manifest.Manifest, error) {
	cfg := env.config
	builder, err := manifest.NewBuilder(manifest.BuilderConfig{
		PlatformVersion: cfg.PlatformVersion,
		StorageOnly:     cfg.StorageOnly,
		Catalog:         catalog,
		AdminUser:       cfg.AdminUser,
		AdminPassword:   cfg.AdminPassword,
		Hive: manifest.HiveDatabase{
			Name:     cfg.Hive.Database,
			User:     cfg.Hive.User,
			Password: cfg.Hive.Password,
		},
		FieldLogger: env.FieldLogger,
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if err := builder.ApplyEcoDefaults(ctx); err != nil {
		return nil, trace.Wrap(err)
	}
	if err := builder.ApplyOverrides(ctx, cfg.EcoVersions); err != nil {
		return nil, trace.Wrap(err)
	}
	return builder.Manifest, nil
}

// deployCluster installs the configured cluster
func deployCluster(ctx context.Context, env environment) error {
	driver, err := newDriver(ctx, env, true)
	if err != nil {
		return trace.Wrap(err)
	}
	if env.config.Preflight {
		if err := driver.Preflight(ctx); err != nil {
			return trace.Wrap(&deploy.StageError{Stage: deploy.StageInit, Err: err})
		}
	}
	err = driver.Deploy(ctx)
	if err != nil {
		reportFailure(ctx, driver, err)
		return trace.Wrap(err)
	}
	return nil
}

// addNode adds host to the installed cluster
func addNode(ctx context.Context, env environment, host, group string) error {
	driver, err := newDriver(ctx, env, false)
	if err != nil {
		return trace.Wrap(err)
	}
	err = driver.AddNode(ctx, host, group)
	if err != nil {
		reportFailure(ctx, driver, err)
		return trace.Wrap(err)
	}
	fmt.Fprintf(env.out, "Host %v added to %v.\n", host, group)
	return nil
}

// uninstall removes the cluster services from all hosts
func uninstall(ctx context.Context, env environment) error {
	driver, err := newDriver(ctx, env, false)
	if err != nil {
		return trace.Wrap(err)
	}
	ok, err := env.confirm(fmt.Sprintf("Uninstall cluster %v ?", env.config.Name))
	if err != nil || !ok {
		return trace.Wrap(err)
	}
	err = driver.Uninstall(ctx)
	if err != nil {
		reportFailure(ctx, driver, err)
		return trace.Wrap(err)
	}
	fmt.Fprintln(env.out, "Cluster uninstalled.")
	return nil
}

// status prints the installer process status and the service addresses
func status(ctx context.Context, env environment) error {
	driver, err := newDriver(ctx, env, false)
	if err != nil {
		return trace.Wrap(err)
	}
	if err := driver.PrintProcessStatus(ctx); err != nil {
		return trace.Wrap(err)
	}
	if err := driver.PrintConsoleURLs(ctx); err != nil {
		env.WithError(err).Warn("Failed to query management console hosts.")
	}
	for _, component := range ecoComponents(env.config.EcoVersions) {
		urls, err := driver.ServiceURLs(ctx, component, env.config.EcoVersions[component])
		if err != nil {
			env.WithError(err).WithField(constants.FieldService, component).Debug("No user interface.")
			continue
		}
		fmt.Fprintf(env.out, "%v available at %v\n", component, urls)
	}
	return nil
}

// ecoComponents returns the components in versions in the order they are applied
func ecoComponents(versions map[string]string) []string {
	var components []string
	for _, component := range manifest.OverrideOrder {
		if _, ok := versions[component]; ok {
			components = append(components, component)
		}
	}
	return components
}

// processLog prints the installer execution log
func processLog(ctx context.Context, env environment) error {
	driver, err := newDriver(ctx, env, false)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(driver.PrintProcessLog(ctx))
}

// reportFailure prints the installer view of a failed stage
func reportFailure(ctx context.Context, driver *deploy.Driver, err error) {
	stageErr, ok := deploy.AsStageError(err)
	if !ok {
		return
	}
	driver.WithField(constants.FieldState, stageErr.State).Errorf("Cluster %v failed.", stageErr.Stage)
	if err := driver.PrintProcessStatus(ctx); err != nil {
		driver.WithError(err).Warn("Failed to query process status.")
	}
	if err := driver.PrintProcessLog(ctx); err != nil {
		driver.WithError(err).Warn("Failed to query process log.")
	}
}
