package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/student-service/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("should create a dev logger", func() {
			Expect(logger.New("info", false, "dev")).NotTo(BeNil())
		})

		It("should create a prod logger with source", func() {
			Expect(logger.New("info", true, "prod")).NotTo(BeNil())
		})
	})

	Describe("NewWithWriter", func() {
		var buf *bytes.Buffer

		BeforeEach(func() {
			buf = &bytes.Buffer{}
		})

		It("should write text outside prod", func() {
			log := logger.NewWithWriter(buf, "info", false, "dev")
			log.Info("hello", slog.String("id", "1"))

			Expect(buf.String()).To(ContainSubstring("msg=hello"))
			Expect(buf.String()).To(ContainSubstring("environment=dev"))
			Expect(buf.String()).To(ContainSubstring("service=student-service"))
			Expect(buf.String()).To(ContainSubstring("id=1"))
		})

		It("should write JSON in prod", func() {
			log := logger.NewWithWriter(buf, "info", false, "prod")
			log.Warn("fallback served")

			var entry map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
			Expect(entry).To(HaveKeyWithValue("msg", "fallback served"))
			Expect(entry).To(HaveKeyWithValue("level", "WARN"))
			Expect(entry).To(HaveKeyWithValue("environment", "prod"))
			Expect(entry).To(HaveKeyWithValue("service", logger.Service))
		})

		It("should drop records below the level", func() {
			log := logger.NewWithWriter(buf, "warn", false, "dev")
			log.Info("quiet")
			Expect(buf.Len()).To(BeZero())
		})
	})

	DescribeTable("ParseLevel",
		func(name string, want slog.Level) {
			Expect(logger.ParseLevel(name)).To(Equal(want))
		},
		Entry("debug", "debug", slog.LevelDebug),
		Entry("info", "info", slog.LevelInfo),
		Entry("warn", "WARN", slog.LevelWarn),
		Entry("error", "error", slog.LevelError),
		Entry("offset", "warn+2", slog.LevelWarn+2),
		Entry("surrounding space", " debug ", slog.LevelDebug),
		Entry("unknown defaults to info", "invalid", slog.LevelInfo),
		Entry("empty defaults to info", "", slog.LevelInfo),
	)

	It("should respect the configured level", func() {
		log := logger.New("error", false, "dev")

		Expect(log.Enabled(context.Background(), slog.LevelWarn)).To(BeFalse())
		Expect(log.Enabled(context.Background(), slog.LevelError)).To(BeTrue())
	})
})
