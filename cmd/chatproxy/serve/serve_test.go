package servecmder

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatproxy/pkg/config"
)

var _ = Describe("Serve Command", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		GinkgoT().Setenv(config.EnvAPIKey, "")
		GinkgoT().Setenv(config.EnvListen, "")
	})

	writeConfig := func(body string) string {
		path := filepath.Join(tmpDir, "chatproxy.toml")
		Expect(os.WriteFile(path, []byte(body), 0o600)).To(Succeed())
		return path
	}

	It("lets explicit flags override the config file", func() {
		path := writeConfig(`
listen = ":7000"
debug = false
`)
		cmd := NewServeCmd()
		Expect(cmd.ParseFlags([]string{"--config", path, "--listen", ":7100", "--debug"})).To(Succeed())

		cfg, err := (&serveCommander{configPath: path, listen: ":7100", debug: true}).loadConfig(cmd)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Listen).To(Equal(":7100"))
		Expect(cfg.Debug).To(BeTrue())
	})

	It("keeps file values when flags are not set", func() {
		path := writeConfig(`listen = ":7000"`)
		cmd := NewServeCmd()
		Expect(cmd.ParseFlags([]string{"--config", path})).To(Succeed())

		cfg, err := (&serveCommander{configPath: path, listen: config.DefaultListen}).loadConfig(cmd)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Listen).To(Equal(":7000"))
	})

	It("maps settings onto the proxy config", func() {
		cfg := config.Default()
		cfg.APIKey = "sk-test"
		cfg.UpstreamTimeout = config.Duration{Duration: 42 * time.Second}

		pc := ProxyConfig(cfg)
		Expect(pc.APIKey).To(Equal("sk-test"))
		Expect(pc.ListenAddr).To(Equal(config.DefaultListen))
		Expect(pc.Route).To(Equal(config.DefaultRoute))
		Expect(pc.DefaultModel).To(Equal(cfg.DefaultModel))
		Expect(pc.UpstreamURL).To(Equal(cfg.UpstreamURL))
		Expect(pc.UpstreamTimeout).To(Equal(42 * time.Second))
	})

	It("fails fast on a broken config file", func() {
		path := writeConfig(`upstream_timeout = "later"`)
		cmd := NewServeCmd()
		cmd.SetArgs([]string{"--config", path})
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true

		Expect(cmd.Execute()).To(HaveOccurred())
	})
})
