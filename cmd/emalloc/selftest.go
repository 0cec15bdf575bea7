package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ericrobbins/emalloc/buffer"
	"github.com/ericrobbins/emalloc/internal/logger"
	"github.com/ericrobbins/emalloc/internal/pow2"
	"github.com/ericrobbins/emalloc/metrics"
	"github.com/ericrobbins/emalloc/region"
)

func init() {
	rootCmd.AddCommand(newSelftestCmd())
}

// selftestConfig holds the selftest parameters.
type selftestConfig struct {
	Start   uint
	End     uint
	Step    uint
	Source  string
	Limit   uint
	Metrics bool
}

// selftestStep is one growth step of the report.
type selftestStep struct {
	Size     uint   `json:"size"`
	Capacity uint   `json:"capacity"`
	Log2     int    `json:"log2"`
	Grew     bool   `json:"grew"`
	Content  string `json:"content"`
}

// selftestReport is the JSON form of a selftest run.
type selftestReport struct {
	Source        string          `json:"source"`
	Steps         []selftestStep  `json:"steps"`
	Stats         buffer.Counters `json:"stats"`
	DoubleRelease string          `json:"double_release"`
}

func newSelftestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Grow one buffer through increasing sizes and verify every step",
		Long: `The selftest command grows a single buffer through a monotonically
increasing sequence of sizes. At each step it writes the size as a
NUL-terminated decimal string, checks that the tracked capacity is the
expected power of two and that the string reads back. It then releases the
buffer and checks that a second release is rejected.

Example:
  emalloc selftest
  emalloc selftest --start 1 --end 100000 --step 1000 --source mmap
  emalloc selftest --limit 65536 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelftest(selftestConfig{
				Start:   viper.GetUint("start"),
				End:     viper.GetUint("end"),
				Step:    viper.GetUint("step"),
				Source:  viper.GetString("source"),
				Limit:   viper.GetUint("limit"),
				Metrics: viper.GetBool("metrics"),
			})
		},
	}

	cmd.Flags().Uint("start", 1, "first size requested")
	cmd.Flags().Uint("end", 1000000, "stop before this size")
	cmd.Flags().Uint("step", 10000, "size increment between steps")
	cmd.Flags().String("source", region.NameHeap, "memory source: heap or mmap")
	cmd.Flags().Uint("limit", 0, "byte budget for the source (0 = unlimited)")
	cmd.Flags().Bool("metrics", false, "print Prometheus metrics after the run")
	return cmd
}

func runSelftest(cfg selftestConfig) error {
	if cfg.Step == 0 {
		return errors.New("step must be greater than zero")
	}
	if cfg.End <= cfg.Start {
		return fmt.Errorf("end (%d) must be greater than start (%d)", cfg.End, cfg.Start)
	}

	src, err := region.ByName(cfg.Source)
	if err != nil {
		return err
	}
	if cfg.Limit > 0 {
		src = region.Limit(src, cfg.Limit)
	}
	return selftestWith(cfg, src)
}

// selftestWith runs a validated selftest against src.
func selftestWith(cfg selftestConfig, src region.Source) error {
	var counters buffer.Counters
	sinks := []buffer.Metrics{&counters}
	var reg *prometheus.Registry
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		prom, err := metrics.NewPrometheus(reg, "emalloc")
		if err != nil {
			return err
		}
		sinks = append(sinks, prom)
	}

	opts := []buffer.Option{
		buffer.WithSource(src),
		buffer.WithLogger(logger.L),
		buffer.WithMetrics(buffer.Tee(sinks...)),
	}

	report := selftestReport{Source: src.Name()}
	printVerbose("Source: %s\n", src.Name())

	var b *buffer.Buffer
	for size := cfg.Start; size < cfg.End; {
		step, err := selftestOnce(&b, size, opts)
		if err != nil {
			if b.Live() {
				if rerr := b.Release(); rerr != nil {
					logger.Warn("selftest cleanup failed", "error", rerr)
					err = errors.Join(err, fmt.Errorf("release: %w", rerr))
				}
			}
			return err
		}
		logger.Debug("selftest step", "size", size, "capacity", step.Capacity,
			"log2", step.Log2, "grew", step.Grew)
		report.Steps = append(report.Steps, step)
		if !jsonOut {
			printInfo("ensure(%s): buf %s, capacity %s\n", num(size), step.Content, num(step.Capacity))
			printVerbose("  2^%d grew=%v region=%p\n", step.Log2, step.Grew, b.Region())
		}

		next := size + cfg.Step
		if next < size {
			break
		}
		size = next
	}

	if err := b.Release(); err != nil {
		return fmt.Errorf("release: %w", err)
	}
	err := b.Release()
	if !errors.Is(err, buffer.ErrInvalidHandle) {
		return fmt.Errorf("second release: got %v, want %v", err, buffer.ErrInvalidHandle)
	}
	report.DoubleRelease = err.Error()
	report.Stats = counters
	logger.Info("selftest finished", "steps", len(report.Steps), "grows", counters.Grows,
		"peak", counters.Peak)

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printInfo("\nReleased; second release rejected: %v\n", err)
		printInfo("Steps: %d, grows: %d, reuses: %d, peak: %s bytes\n",
			len(report.Steps), counters.Grows, counters.Reuses, num(uint(counters.Peak)))
	}

	if reg != nil {
		return writeMetrics(reg)
	}
	return nil
}

// selftestOnce grows *b to size, writes the size into it and verifies both
// the capacity and the content.
func selftestOnce(b **buffer.Buffer, size uint, opts []buffer.Option) (selftestStep, error) {
	prevCap := (*b).Cap()

	nb, err := buffer.Ensure(*b, size, opts...)
	if err != nil {
		return selftestStep{}, fmt.Errorf("ensure %d: %w", size, err)
	}
	*b = nb

	want, _ := pow2.RoundUp(size)
	want = max(want, prevCap)
	if nb.Cap() != want || !pow2.Is(nb.Cap()) {
		return selftestStep{}, fmt.Errorf("ensure %d: capacity %d, want %d", size, nb.Cap(), want)
	}
	step := selftestStep{
		Size:     size,
		Capacity: nb.Cap(),
		Log2:     pow2.Log2(nb.Cap()),
		Grew:     nb.Cap() != prevCap,
	}

	digits := strconv.FormatUint(uint64(size), 10)
	if err := nb.PutCString(digits); err != nil {
		return selftestStep{}, fmt.Errorf("write %d: %w", size, err)
	}
	if got := nb.String(); got != digits {
		return selftestStep{}, fmt.Errorf("read back %q, want %q", got, digits)
	}
	step.Content = digits
	return step, nil
}

func writeMetrics(reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(os.Stdout, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
