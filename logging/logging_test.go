package logging_test

import (
	"bytes"
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ttasched/logging"
)

var _ = Describe("Logger", func() {
	var buf bytes.Buffer

	BeforeEach(func() {
		buf.Reset()
	})

	It("should write text lines", func() {
		logger := logging.NewLoggerWithWriter(slog.LevelInfo, "text", &buf)
		logger.Info("group committed", "group", 3)

		Expect(buf.String()).To(ContainSubstring("group committed"))
		Expect(buf.String()).To(ContainSubstring("group=3"))
	})

	It("should write JSON lines", func() {
		logger := logging.NewLoggerWithWriter(slog.LevelInfo, "JSON", &buf)
		logger.Info("group committed", "group", 3)

		Expect(buf.String()).To(ContainSubstring(`"msg":"group committed"`))
		Expect(buf.String()).To(ContainSubstring(`"group":3`))
	})

	It("should filter below the level", func() {
		logger := logging.NewLoggerWithWriter(slog.LevelWarn, "text", &buf)
		logger.Info("hidden")
		logger.Warn("shown")

		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		Expect(buf.String()).To(ContainSubstring("shown"))
	})

	It("should carry child attributes", func() {
		logger := logging.NewLoggerWithWriter(slog.LevelDebug, "text", &buf)
		logger.With("component", "sched").Debug("probe", "start", 2)

		Expect(buf.String()).To(ContainSubstring("component=sched"))
		Expect(buf.String()).To(ContainSubstring("start=2"))
	})

	It("should drop everything when discarding", func() {
		Expect(logging.Discard().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
	})
})

var _ = DescribeTable("ParseLevel",
	func(in string, want slog.Level) {
		Expect(logging.ParseLevel(in)).To(Equal(want))
	},
	Entry("debug", "debug", slog.LevelDebug),
	Entry("upper case", "DEBUG", slog.LevelDebug),
	Entry("info", "info", slog.LevelInfo),
	Entry("warn", "warn", slog.LevelWarn),
	Entry("warning", "warning", slog.LevelWarn),
	Entry("error", "error", slog.LevelError),
	Entry("unknown", "chatty", slog.LevelInfo),
)

var _ = Describe("ParseLevelStrict", func() {
	It("should report unknown names", func() {
		_, err := logging.ParseLevelStrict("chatty")
		Expect(err).To(MatchError(ContainSubstring("unknown log level")))

		level, err := logging.ParseLevelStrict("")
		Expect(err).NotTo(HaveOccurred())
		Expect(level).To(Equal(slog.LevelInfo))
	})
})
