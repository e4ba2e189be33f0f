package field_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-animator/internal/field"
)

var _ = Describe("CheckCoverage", func() {
	It("finds no name registered in both the opcode table and the field kernel table", func() {
		Expect(field.CheckCoverage()).To(Succeed())
	})
})
