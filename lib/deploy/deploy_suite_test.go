package deploy_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestDeploySuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "deploy")
}
