// Package completion specs run under the standard test runner or the Ginkgo CLI:
//
//	go run github.com/onsi/ginkgo/v2/ginkgo ./internal/completion/...
package completion

import (
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestCompletion(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Completion Suite")
}
