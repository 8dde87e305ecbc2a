package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

// SnapshotSource is satisfied by *goAuthClient.Engine.
type SnapshotSource interface {
	MetricsSnapshot() goAuthClient.MetricsSnapshot
}

// PrometheusExporter renders engine metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source SnapshotSource
}

// NewPrometheusExporter creates a Prometheus exporter that reads from the given [goAuthClient.Engine].
func NewPrometheusExporter(engine *goAuthClient.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates an exporter over any snapshot source.
func NewPrometheusExporterFromSource(source SnapshotSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes one scrape. Engine state is always present; counters and the
// latency histogram only appear when the engine records them.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}
	snapshot := p.source.MetricsSnapshot()

	var w expositionWriter
	w.Grow(4096)

	if len(snapshot.Counters) > 0 {
		for _, def := range internaldefs.CounterDefs {
			w.family(def.Name, def.Help, "counter")
			w.sample(def.Name, "", strconv.FormatUint(snapshot.Counters[def.ID], 10))
		}
	}

	for _, def := range internaldefs.StateDefs {
		kind := "gauge"
		if def.Monotonic {
			kind = "counter"
		}
		w.family(def.Name, def.Help, kind)
		w.sample(def.Name, "", strconv.FormatInt(def.Value(snapshot.State), 10))
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		cumulative := internaldefs.Cumulative(raw)
		w.family(def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			w.sample(def.Name+"_bucket", `le="`+le+`"`, strconv.FormatUint(cumulative[i], 10))
		}
		w.sample(def.Name+"_sum", "", strconv.FormatFloat(snapshot.LatencySum.Seconds(), 'g', -1, 64))
		w.sample(def.Name+"_count", "", strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	}

	return w.String()
}

type expositionWriter struct {
	strings.Builder
}

func (w *expositionWriter) family(name, help, kind string) {
	w.WriteString("# HELP " + name + " " + escapeHelp(help) + "\n")
	w.WriteString("# TYPE " + name + " " + kind + "\n")
}

func (w *expositionWriter) sample(name, labels, value string) {
	w.WriteString(name)
	if labels != "" {
		w.WriteString("{" + labels + "}")
	}
	w.WriteString(" " + value + "\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
