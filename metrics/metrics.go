// Package metrics exports allocator statistics as Prometheus metrics.
//
// A Collector pulls an mm.Stats snapshot on every scrape, so it can be
// registered once and left alone:
//
//	reg := prometheus.NewRegistry()
//	c, _ := metrics.NewCollector(a.Stats, map[string]string{"trace": name})
//	reg.MustRegister(c)
//	metrics.WriteText(os.Stdout, reg)
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"

	"github.com/joshuapare/segalloc/mm"
)

const namespace = "segalloc"

// Collector implements prometheus.Collector over an mm.Stats source.
type Collector struct {
	source func() mm.Stats

	calls        *prometheus.Desc
	reallocPaths *prometheus.Desc
	extends      *prometheus.Desc
	extendBytes  *prometheus.Desc
	splits       *prometheus.Desc
	coalesces    *prometheus.Desc
	failures     *prometheus.Desc
	heapBytes    *prometheus.Desc
	blocks       *prometheus.Desc
	blockBytes   *prometheus.Desc
	largestFree  *prometheus.Desc
	bucketLen    *prometheus.Desc
	utilization  *prometheus.Desc
}

// NewCollector returns a collector reading from source. labels are attached
// to every metric as constant labels and must be valid Prometheus label names.
func NewCollector(source func() mm.Stats, labels map[string]string) (*Collector, error) {
	for k := range labels {
		if !model.LabelName(k).IsValid() {
			return nil, fmt.Errorf("metrics: invalid label name %q", k)
		}
	}
	cl := prometheus.Labels(labels)
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, variable, cl)
	}

	return &Collector{
		source:       source,
		calls:        desc("calls_total", "Allocator API calls by operation.", "op"),
		reallocPaths: desc("realloc_path_total", "Realloc calls by the strategy that satisfied them.", "path"),
		extends:      desc("heap_extensions_total", "Backing store growths."),
		extendBytes:  desc("heap_extended_bytes_total", "Bytes added to the heap."),
		splits:       desc("splits_total", "Free blocks split to satisfy a request."),
		coalesces:    desc("coalesces_total", "Free block merges."),
		failures:     desc("failures_total", "Alloc and Realloc calls that ran out of memory."),
		heapBytes:    desc("heap_bytes", "Current heap size."),
		blocks:       desc("blocks", "Blocks in the heap by state.", "state"),
		blockBytes:   desc("block_bytes", "Bytes in the heap by block state.", "state"),
		largestFree:  desc("largest_free_block_bytes", "Size of the largest free block."),
		bucketLen:    desc("bucket_length", "Free blocks per segregated bucket.", "bucket"),
		utilization:  desc("utilization_ratio", "Allocated block bytes over heap size."),
	}, nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.calls, c.reallocPaths, c.extends, c.extendBytes, c.splits, c.coalesces, c.failures,
		c.heapBytes, c.blocks, c.blockBytes, c.largestFree, c.bucketLen, c.utilization,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source()

	counter := func(d *prometheus.Desc, v int, lv ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), lv...)
	}
	gauge := func(d *prometheus.Desc, v float64, lv ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, lv...)
	}

	counter(c.calls, s.Allocs, "alloc")
	counter(c.calls, s.Frees, "free")
	counter(c.calls, s.Reallocs, "realloc")
	for p := range mm.NumReallocPaths {
		counter(c.reallocPaths, s.ReallocPaths[p], p.String())
	}
	counter(c.extends, s.Extends)
	counter(c.extendBytes, s.ExtendBytes)
	counter(c.splits, s.Splits)
	counter(c.coalesces, s.Coalesces)
	counter(c.failures, s.Failures)

	gauge(c.heapBytes, float64(s.HeapSize))
	gauge(c.blocks, float64(s.AllocatedBlocks), "allocated")
	gauge(c.blocks, float64(s.FreeBlocks), "free")
	gauge(c.blockBytes, float64(s.AllocatedBytes), "allocated")
	gauge(c.blockBytes, float64(s.FreeBytes), "free")
	gauge(c.largestFree, float64(s.LargestFree))
	for i, n := range s.BucketLengths {
		gauge(c.bucketLen, float64(n), fmt.Sprint(i))
	}
	gauge(c.utilization, s.Utilization())
}

// WriteText gathers g and writes it in the Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
