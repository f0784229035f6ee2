package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/simulation"
)

const sampleTrace = `# a loop body and its data
I 0x400000
L 0x7fff0000
I 0x400004
S 0x7fff0004
I 0x400000
`

var _ = Describe("Commands", func() {
	var (
		dir    string
		stdout *bytes.Buffer
		stderr *bytes.Buffer
	)

	execute := func(stdin string, args ...string) error {
		root := newRootCmd()
		root.SetArgs(append([]string{"--env-file", ""}, args...))
		root.SetIn(strings.NewReader(stdin))
		root.SetOut(stdout)
		root.SetErr(stderr)

		return root.Execute()
	}

	writeTrace := func() string {
		path := filepath.Join(dir, "trace.txt")
		Expect(os.WriteFile(path, []byte(sampleTrace), 0o644)).To(Succeed())

		return path
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		stdout = new(bytes.Buffer)
		stderr = new(bytes.Buffer)
	})

	It("should run a trace file", func() {
		err := execute("", "run", writeTrace(), "--preset", "small")

		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).To(ContainSubstring("Instruction refs: 3"))
		Expect(stdout.String()).To(ContainSubstring("Data refs: 2"))
	})

	It("should read the standard input and print JSON", func() {
		err := execute(sampleTrace, "run", "--json",
			"--l2cache-sets", "0", "--memspeed", "50")
		Expect(err).NotTo(HaveOccurred())

		var r simulation.Report
		Expect(json.Unmarshal(stdout.Bytes(), &r)).To(Succeed())
		Expect(r.References()).To(Equal(uint64(5)))
		Expect(r.Levels[2].Enabled).To(BeFalse())

		// Each L1 misses once, the other references hit the same blocks.
		Expect(r.Levels[0].Misses).To(Equal(uint64(1)))
		Expect(r.Levels[1].Misses).To(Equal(uint64(1)))
		Expect(r.TotalLatency).To(Equal(uint64(51 + 51 + 1 + 1 + 1)))
	})

	It("should log cache events when verbose", func() {
		err := execute(sampleTrace, "run", "-v")

		Expect(err).NotTo(HaveOccurred())
		Expect(stderr.String()).To(ContainSubstring("L1I, CacheMiss, 0x00400000"))
	})

	It("should report malformed traces", func() {
		err := execute("I 0x400000\nX\n", "run")

		Expect(err).To(MatchError(ContainSubstring("trace line 2")))
	})

	It("should refuse to record events without a database", func() {
		err := execute(sampleTrace, "run", "--record-events")

		Expect(err).To(MatchError(ContainSubstring("requires --db")))
	})

	It("should record into a database and print it back", func() {
		db := filepath.Join(dir, "run.sqlite3")

		err := execute(sampleTrace, "run", "--db", db, "--record-events")
		Expect(err).NotTo(HaveOccurred())
		Expect(db).To(BeAnExistingFile())

		stdout.Reset()
		err = execute("", "stats", db)

		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).To(ContainSubstring("Simulation ID"))
		Expect(stdout.String()).To(MatchRegexp(`L1D\s+2\s+1\s+50\.00%`))
	})

	It("should not overwrite a database", func() {
		db := filepath.Join(dir, "old.sqlite3")
		Expect(os.WriteFile(db, nil, 0o644)).To(Succeed())

		err := execute(sampleTrace, "run", "--db", db)

		Expect(err).To(MatchError(ContainSubstring("already exists")))
	})

	It("should list the presets", func() {
		err := execute("", "presets")

		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).To(ContainSubstring("m-series"))
		Expect(stdout.String()).To(MatchRegexp(`direct-mapped\s+256x1`))
	})

	It("should load defaults from an env file", func() {
		envFile := filepath.Join(dir, "cachesim.env")
		Expect(os.WriteFile(envFile,
			[]byte("CACHESIM_TEST_MARKER=loaded\n"), 0o644)).To(Succeed())
		DeferCleanup(os.Unsetenv, "CACHESIM_TEST_MARKER")

		Expect(loadEnvFile(envFile)).To(Succeed())
		Expect(os.Getenv("CACHESIM_TEST_MARKER")).To(Equal("loaded"))

		Expect(loadEnvFile(filepath.Join(dir, "missing.env"))).To(Succeed())
	})
})
