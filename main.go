package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gravitational/installdriver/lib/constants"
	"github.com/gravitational/installdriver/lib/debug"
	"github.com/gravitational/installdriver/lib/deploy"
	"github.com/gravitational/installdriver/lib/xlog"

	"github.com/fatih/color"
	"github.com/gravitational/configure/cstrings"
	"github.com/gravitational/trace"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	if err := run(); err != nil {
		code := exitCode(err)
		if code == exitUnexpected {
			log.Errorf(trace.DebugReport(err))
		}
		color.Red("[ERROR]: %v", trace.UserMessage(err))
		os.Exit(code)
	}
}

const (
	exitInit       = 1
	exitCheck      = 2
	exitInstall    = 3
	exitUnexpected = 255
)

// exitCode maps a failed deployment stage to the process exit code
func exitCode(err error) int {
	stageErr, ok := deploy.AsStageError(err)
	if !ok {
		return exitUnexpected
	}
	switch stageErr.Stage {
	case deploy.StageInit:
		return exitInit
	case deploy.StageCheck:
		return exitCheck
	case deploy.StageInstall:
		return exitInstall
	}
	return exitUnexpected
}

func run() error {
	args, _ := cstrings.SplitAt(os.Args, "--")

	var (
		app   = kingpin.New("installdriver", "Deploys a cluster through the installer service.")
		flags = registerFlags(app)

		cdeploy = app.Command("deploy", "Configure, validate and install the cluster.").Default()

		caddNode      = app.Command("add-node", "Add a host to an installed cluster.")
		caddNodeHost  = caddNode.Flag("host", "Host to add.").Required().String()
		caddNodeGroup = caddNode.Flag("group", "Host group to add the host to.").Default(constants.GroupData).String()

		cuninstall = app.Command("uninstall", "Remove the cluster services from all hosts.")
		cstatus    = app.Command("status", "Show the installer process status.")
		clog       = app.Command("log", "Show the installer process log.")
	)

	cmd, err := app.Parse(args[1:])
	if err != nil {
		return trace.Wrap(err)
	}

	cfg, err := flags.load()
	if err != nil {
		return trace.Wrap(err)
	}
	logger, closer, err := xlog.NewLogger(xlog.Config{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		Quiet: cfg.Quiet,
	})
	if err != nil {
		return trace.Wrap(err)
	}
	defer closer.Close()
	if flags.pprofAddr != "" {
		if _, err := debug.StartProfiling(flags.pprofAddr, logger); err != nil {
			return trace.Wrap(err)
		}
	}

	prompt := newPrompter(os.Stdin, os.Stdout)
	env := environment{
		config:      cfg,
		out:         os.Stdout,
		confirm:     prompt.confirm,
		FieldLogger: logger.WithField(constants.FieldRunID, uuid.NewV4().String()),
	}
	if cfg.Yes {
		env.confirm = func(string) (bool, error) { return true, nil }
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		select {
		case sig := <-signals:
			logger.Warnf("Received %v, stopping.", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	switch cmd {
	case cdeploy.FullCommand():
		return deployCluster(ctx, env)
	case caddNode.FullCommand():
		return addNode(ctx, env, *caddNodeHost, *caddNodeGroup)
	case cuninstall.FullCommand():
		return uninstall(ctx, env)
	case cstatus.FullCommand():
		return status(ctx, env)
	case clog.FullCommand():
		return processLog(ctx, env)
	}

	return nil
}
