package deploy_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"time"

	"github.com/gravitational/installdriver/lib/config"
	"github.com/gravitational/installdriver/lib/constants"
	"github.com/gravitational/installdriver/lib/defaults"
	"github.com/gravitational/installdriver/lib/deploy"
	"github.com/gravitational/installdriver/lib/installer"
	"github.com/gravitational/installdriver/lib/installer/installertest"
	"github.com/gravitational/installdriver/lib/manifest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

var _ = Describe("Community cluster installation", func() {
	var (
		srv    *installertest.Server
		client *installer.Client
		target config.ClusterTarget
		out    bytes.Buffer
		log    *logrus.Logger
	)

	BeforeEach(func() {
		log = logrus.New()
		log.Out = ioutil.Discard
		out.Reset()

		srv = installertest.New("mapr", "MapR")
		srv.AddService("mapr-kafka", "0.9.0")
		srv.AddService("mapr-hive", "1.2")
		srv.AddGroup(constants.GroupData, "1")
		srv.AddGroup(constants.GroupClient, "2")
		srv.PlaceService("mapr-webserver-5.1.0", "node2")
		srv.Script(constants.StateChecking, constants.StateChecking, constants.StateChecked)
		srv.Script(constants.StateProvisioning, constants.StateProvisioning, constants.StateProvisioned)
		srv.Script(constants.StateInstalling, constants.StateInstalling, constants.StateInstalling, constants.StateInstalled)

		var err error
		client, err = installer.NewClient(installer.Config{
			URL:         srv.URL,
			User:        "mapr",
			Password:    "MapR",
			FieldLogger: log,
		})
		Expect(err).NotTo(HaveOccurred())

		target = config.ClusterTarget{
			Name:            "demo",
			PlatformVersion: "5.1.0",
			Edition:         constants.EditionCommunity,
			AdminUser:       "mapr",
			AdminPassword:   "MapR",
			SSHUser:         "centos",
			SSHPassword:     "centos",
			Hosts:           []string{"node1", "node2", "node3"},
			Disks:           []string{"/dev/xvdf", "/dev/xvdg"},
			StageUser:       "stage",
			StageURL:        "http://127.0.0.1:1",
		}
	})

	AfterEach(func() {
		srv.Close()
	})

	buildManifest := func() manifest.Manifest {
		builder, err := manifest.NewBuilder(manifest.BuilderConfig{
			PlatformVersion: target.PlatformVersion,
			Catalog:         client,
			AdminUser:       target.AdminUser,
			AdminPassword:   target.AdminPassword,
			FieldLogger:     log,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(builder.ApplyEcoDefaults(context.Background())).To(Succeed())
		return builder.Manifest
	}

	newDriver := func(m manifest.Manifest) *deploy.Driver {
		phase := defaults.Phase{Timeout: time.Second, Interval: time.Millisecond}
		driver, err := deploy.New(deploy.Config{
			Installer:    client,
			InstallerURL: srv.URL,
			Target:       target,
			Manifest:     m,
			Phases: defaults.Phases{
				Init: phase, Check: phase, Provision: phase, Install: phase,
				License: phase, Complete: phase, Uninstall: phase,
			},
			Quiet:       true,
			Out:         &out,
			FieldLogger: log,
		})
		Expect(err).NotTo(HaveOccurred())
		return driver
	}

	It("includes the streaming add-on in the manifest", func() {
		m := buildManifest()
		Expect(m).To(HaveKey("mapr-kafka"))
		Expect(m["mapr-kafka"].Version).To(Equal("0.9.0"))
		Expect(m).To(HaveKey("mapr-resourcemanager"))
	})

	It("deploys the cluster through every phase", func() {
		driver := newDriver(buildManifest())

		By("running the deployment")
		Expect(driver.Deploy(context.Background())).To(Succeed())
		Expect(driver.State()).To(Equal(constants.StateCompleted))

		By("verifying the requested transitions")
		Expect(srv.RequestedStates()).To(Equal([]string{
			constants.StateChecking,
			constants.StateProvisioning,
			constants.StateInstalling,
			constants.StateCompleted,
		}))

		By("verifying no trial license or portal credentials were sent")
		keys := srv.ConfigKeys()
		Expect(keys).NotTo(ContainElement("license"))
		Expect(keys).NotTo(ContainElement("mapr_name,mapr_password"))
		Expect(keys).To(ContainElement("services"))

		By("verifying the placement was repaired")
		Expect(srv.GroupHosts(constants.GroupData)).To(Equal(target.Hosts))
		Expect(srv.GroupHosts(constants.GroupClient)).To(Equal(target.Hosts))
		Expect(srv.ServiceHosts("mapr-webserver-5.1.0")).To(ContainElement("node1"))

		By("reporting the console addresses")
		Expect(out.String()).To(ContainSubstring(srv.URL + "/#/complete"))
		Expect(out.String()).To(ContainSubstring("https://node1:8443"))
	})

	It("resumes a deployment that failed to install", func() {
		srv.SetStates(constants.StateInstallError)
		srv.Script(constants.StateProvisioning, constants.StateProvisioned)
		srv.Script(constants.StateInstalling, constants.StateInstallError)
		driver := newDriver(buildManifest())

		err := driver.Deploy(context.Background())
		Expect(err).To(HaveOccurred())
		stageErr, ok := deploy.AsStageError(err)
		Expect(ok).To(BeTrue())
		Expect(stageErr.Stage).To(Equal(deploy.StageInstall))
		Expect(driver.State()).To(Equal(constants.StateInstallError))
		Expect(srv.RequestedStates()).To(Equal([]string{
			constants.StateProvisioning,
			constants.StateInstalling,
		}))
	})
})
