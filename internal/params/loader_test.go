package params_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/physsm/internal/params"
)

var isingSchema = params.MustSchema(
	params.Field{Key: "outputfile", Kind: params.KindString, Required: true},
	params.Field{Key: "Lx", Kind: params.KindUint, Required: true},
	params.Field{Key: "Ly", Kind: params.KindUint, Required: true},
	params.Field{Key: "monte_carlo_trials", Kind: params.KindUint, Required: true},
	params.Field{Key: "temperature", Kind: params.KindFloatList, Required: true},
	params.Field{Key: "my_bool", Kind: params.KindBool},
)

const scenario = "outputfile: out.txt\nLx: 4\nLy: 4\nmonte_carlo_trials: 10\ntemperature: 1.0, 2.0, 3.0"

var _ = Describe("Loader", func() {
	var (
		logs   *observer.ObservedLogs
		loader *params.Loader
	)

	parse := func(input string) (*params.Set, error) {
		return loader.Parse(strings.NewReader(input))
	}

	BeforeEach(func() {
		var core zapcore.Core
		core, logs = observer.New(zapcore.DebugLevel)
		loader = params.NewLoader(isingSchema, params.Options{Logger: zap.New(core)})
	})

	Context("with a well-formed file", func() {
		It("parses every declared value", func() {
			set, err := parse(scenario)
			Expect(err).NotTo(HaveOccurred())

			out, _ := set.String("outputfile")
			lx, _ := set.Uint("Lx")
			ly, _ := set.Uint("Ly")
			trials, _ := set.Uint("monte_carlo_trials")
			temps, _ := set.Floats("temperature")

			Expect(out).To(Equal("out.txt"))
			Expect(lx).To(Equal(uint64(4)))
			Expect(ly).To(Equal(uint64(4)))
			Expect(trials).To(Equal(uint64(10)))
			Expect(temps).To(Equal([]float64{1.0, 2.0, 3.0}))
			Expect(set.Has("my_bool")).To(BeFalse())
			Expect(logs.Len()).To(Equal(0))
		})

		It("ignores whitespace around keys and values", func() {
			set, err := parse("  outputfile   :   out.txt  \nLx:4\nLy :4\nmonte_carlo_trials:\t10\ntemperature:1.5,2.5 ,  3.5\n")
			Expect(err).NotTo(HaveOccurred())
			out, _ := set.String("outputfile")
			temps, _ := set.Floats("temperature")
			Expect(out).To(Equal("out.txt"))
			Expect(temps).To(Equal([]float64{1.5, 2.5, 3.5}))
		})

		It("splits on the first colon only", func() {
			set, err := parse(strings.Replace(scenario, "out.txt", `C:\runs\out.txt`, 1))
			Expect(err).NotTo(HaveOccurred())
			out, _ := set.String("outputfile")
			Expect(out).To(Equal(`C:\runs\out.txt`))
		})

		It("accepts CRLF line endings", func() {
			set, err := parse(strings.ReplaceAll(scenario, "\n", "\r\n") + "\r\n")
			Expect(err).NotTo(HaveOccurred())
			trials, _ := set.Uint("monte_carlo_trials")
			Expect(trials).To(Equal(uint64(10)))
		})

		It("parses optional booleans", func() {
			set, err := parse(scenario + "\nmy_bool: true")
			Expect(err).NotTo(HaveOccurred())
			b, ok := set.Bool("my_bool")
			Expect(ok).To(BeTrue())
			Expect(b).To(BeTrue())
		})

		It("keeps the last occurrence of a repeated key", func() {
			set, err := parse("outputfile: a.txt\n" + scenario[len("outputfile: out.txt\n"):] + "\noutputfile: b.txt")
			Expect(err).NotTo(HaveOccurred())
			out, _ := set.String("outputfile")
			Expect(out).To(Equal("b.txt"))
		})
	})

	Context("with an unknown key", func() {
		It("warns once and drops the key", func() {
			set, err := parse(scenario + "\nfoo: bar")
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Has("foo")).To(BeFalse())

			Expect(logs.Len()).To(Equal(1))
			entry := logs.All()[0]
			Expect(entry.Level).To(Equal(zapcore.WarnLevel))
			Expect(entry.ContextMap()).To(HaveKeyWithValue("key", "foo"))
			Expect(entry.ContextMap()).To(HaveKeyWithValue("line", int64(6)))
		})

		It("matches keys case-sensitively", func() {
			_, err := parse(strings.Replace(scenario, "Lx", "lx", 1))
			Expect(errors.Is(err, params.ErrMissingField)).To(BeTrue())
			Expect(logs.FilterField(zap.String("key", "lx")).Len()).To(Equal(1))
		})
	})

	DescribeTable("rejects invalid input",
		func(input string, kind error, check func(*params.ConfigError)) {
			_, err := parse(input)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, kind)).To(BeTrue(), "got %v", err)

			var cfgErr *params.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			check(cfgErr)
		},
		Entry("line without colon", "outputfile out.txt\n"+scenario, params.ErrMalformedLine,
			func(e *params.ConfigError) { Expect(e.Line).To(Equal(1)) }),
		Entry("blank line in the middle", "outputfile: out.txt\n\nLx: 4", params.ErrMalformedLine,
			func(e *params.ConfigError) { Expect(e.Line).To(Equal(2)) }),
		Entry("non-numeric size", strings.Replace(scenario, "Lx: 4", "Lx: abc", 1), params.ErrTypeMismatch,
			func(e *params.ConfigError) {
				Expect(e.Key).To(Equal("Lx"))
				Expect(e.Value).To(Equal("abc"))
				Expect(e.Line).To(Equal(2))
			}),
		Entry("negative size", strings.Replace(scenario, "Ly: 4", "Ly: -4", 1), params.ErrTypeMismatch,
			func(e *params.ConfigError) { Expect(e.Key).To(Equal("Ly")) }),
		Entry("bad float in list", strings.Replace(scenario, "2.0", "two", 1), params.ErrTypeMismatch,
			func(e *params.ConfigError) { Expect(e.Key).To(Equal("temperature")) }),
		Entry("trailing comma in list", scenario+",", params.ErrTypeMismatch,
			func(e *params.ConfigError) { Expect(e.Key).To(Equal("temperature")) }),
		Entry("non-canonical bool", scenario+"\nmy_bool: True", params.ErrTypeMismatch,
			func(e *params.ConfigError) { Expect(e.Key).To(Equal("my_bool")) }),
		Entry("missing required key", strings.Replace(scenario, "monte_carlo_trials: 10\n", "", 1), params.ErrMissingField,
			func(e *params.ConfigError) { Expect(e.Key).To(Equal("monte_carlo_trials")) }),
		Entry("empty file", "", params.ErrMissingField,
			func(e *params.ConfigError) { Expect(e.Key).To(Equal("outputfile")) }),
		Entry("empty required list", strings.Replace(scenario, "1.0, 2.0, 3.0", "", 1), params.ErrEmptyList,
			func(e *params.ConfigError) { Expect(e.Key).To(Equal("temperature")) }),
	)

	Context("when duplicates are rejected", func() {
		BeforeEach(func() {
			loader = params.NewLoader(isingSchema, params.Options{RejectDuplicates: true})
		})

		It("fails on the second occurrence", func() {
			_, err := parse(scenario + "\nLx: 8")
			Expect(errors.Is(err, params.ErrDuplicateKey)).To(BeTrue())

			var cfgErr *params.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Key).To(Equal("Lx"))
			Expect(cfgErr.Line).To(Equal(6))
		})

		It("still ignores repeated unknown keys", func() {
			_, err := parse(scenario + "\nfoo: 1\nfoo: 2")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Load", func() {
		It("reads from disk", func() {
			path := filepath.Join(GinkgoT().TempDir(), "parameter.txt")
			Expect(os.WriteFile(path, []byte(scenario+"\n"), 0644)).To(Succeed())

			set, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			lx, _ := set.Uint("Lx")
			Expect(lx).To(Equal(uint64(4)))
		})

		It("reports unreadable files as i/o failures", func() {
			path := filepath.Join(GinkgoT().TempDir(), "missing.txt")
			_, err := loader.Load(path)
			Expect(errors.Is(err, params.ErrIO)).To(BeTrue())
			Expect(errors.Is(err, fs.ErrNotExist)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("missing.txt"))
		})

		It("records the path on parse errors", func() {
			path := filepath.Join(GinkgoT().TempDir(), "bad.txt")
			Expect(os.WriteFile(path, []byte("Lx 4\n"), 0644)).To(Succeed())

			_, err := loader.Load(path)
			var cfgErr *params.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Path).To(Equal(path))
		})
	})
})
