package internal_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/replybase/replybase/internal"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config", func() {
	Describe("InviteConfig", func() {
		It("falls back to the thirty day default when unset", func() {
			cfg := internal.InviteConfig{}
			Expect(cfg.EffectiveTTL()).To(Equal(internal.DefaultInviteTTL))
		})

		It("honors a configured TTL", func() {
			cfg := internal.InviteConfig{TTL: 48 * time.Hour}
			Expect(cfg.EffectiveTTL()).To(Equal(48 * time.Hour))
		})
	})

	Describe("SecurityConfig", func() {
		It("falls back to the default resolve timeout when unset", func() {
			cfg := internal.SecurityConfig{}
			Expect(cfg.EffectiveResolveTimeout()).To(Equal(internal.DefaultResolveTimeout))
		})

		It("honors a configured resolve timeout", func() {
			cfg := internal.SecurityConfig{ResolveTimeout: time.Second}
			Expect(cfg.EffectiveResolveTimeout()).To(Equal(time.Second))
		})
	})

	Describe("DatabaseConfig validation", func() {
		It("requires a source", func() {
			cfg := internal.DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5}
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("rejects more idle than open connections", func() {
			cfg := internal.DatabaseConfig{Source: "postgres://x", MaxOpenConns: 5, MaxIdleConns: 10}
			Expect(cfg.Validate()).NotTo(Succeed())
		})
	})
})
