package otel

import (
	"context"
	"errors"
	"fmt"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no Meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no snapshot source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

// SnapshotSource is satisfied by *goAuthClient.Engine.
type SnapshotSource interface {
	MetricsSnapshot() goAuthClient.MetricsSnapshot
}

// observeFunc reports one instrument from a snapshot taken once per collection.
type observeFunc func(metric.Observer, goAuthClient.MetricsSnapshot)

// OTelExporter publishes engine metrics through observable instruments.
type OTelExporter struct {
	source       SnapshotSource
	observers    []observeFunc
	instruments  []metric.Observable
	registration metric.Registration
}

// NewOTelExporter registers instruments on meter that read engine on every
// collection.
func NewOTelExporter(meter metric.Meter, engine *goAuthClient.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is NewOTelExporter over any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source SnapshotSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	if err := e.addCounters(meter); err != nil {
		return nil, err
	}
	if err := e.addState(meter); err != nil {
		return nil, err
	}
	if err := e.addHistograms(meter); err != nil {
		return nil, err
	}

	registration, err := meter.RegisterCallback(e.collect, e.instruments...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) collect(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, observe := range e.observers {
		observe(o, snapshot)
	}
	return nil
}

func (e *OTelExporter) add(ins metric.Observable, fn observeFunc) {
	e.instruments = append(e.instruments, ins)
	e.observers = append(e.observers, fn)
}

func (e *OTelExporter) addCounters(meter metric.Meter) error {
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		id := def.ID
		e.add(ins, func(o metric.Observer, s goAuthClient.MetricsSnapshot) {
			if v, ok := s.Counters[id]; ok {
				o.ObserveInt64(ins, int64(v))
			}
		})
	}
	return nil
}

func (e *OTelExporter) addState(meter metric.Meter) error {
	for _, def := range internaldefs.StateDefs {
		value := def.Value
		if def.Monotonic {
			ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
			if err != nil {
				return fmt.Errorf("create counter %s: %w", def.Name, err)
			}
			e.add(ins, func(o metric.Observer, s goAuthClient.MetricsSnapshot) {
				o.ObserveInt64(ins, value(s.State))
			})
			continue
		}
		ins, err := meter.Int64ObservableGauge(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("create gauge %s: %w", def.Name, err)
		}
		e.add(ins, func(o metric.Observer, s goAuthClient.MetricsSnapshot) {
			o.ObserveInt64(ins, value(s.State))
		})
	}
	return nil
}

// addHistograms exports each histogram as cumulative bucket gauges plus _sum
// and _count, matching the Prometheus rendering.
func (e *OTelExporter) addHistograms(meter metric.Meter) error {
	for _, def := range internaldefs.HistogramDefs {
		id := def.ID
		for i := range internaldefs.HistogramBounds {
			name := def.Name + "_bucket_le_" + internaldefs.BoundSuffix(i)
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return fmt.Errorf("create bucket gauge %s: %w", name, err)
			}
			e.add(ins, func(o metric.Observer, s goAuthClient.MetricsSnapshot) {
				if raw, ok := s.Histograms[id]; ok {
					o.ObserveInt64(ins, int64(internaldefs.Cumulative(raw)[i]))
				}
			})
		}

		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return fmt.Errorf("create count gauge %s_count: %w", def.Name, err)
		}
		e.add(count, func(o metric.Observer, s goAuthClient.MetricsSnapshot) {
			if raw, ok := s.Histograms[id]; ok {
				c := internaldefs.Cumulative(raw)
				o.ObserveInt64(count, int64(c[len(c)-1]))
			}
		})

		sum, err := meter.Float64ObservableGauge(def.Name+"_sum", metric.WithDescription("Histogram total in seconds."), metric.WithUnit("s"))
		if err != nil {
			return fmt.Errorf("create sum gauge %s_sum: %w", def.Name, err)
		}
		e.add(sum, func(o metric.Observer, s goAuthClient.MetricsSnapshot) {
			if _, ok := s.Histograms[id]; ok {
				o.ObserveFloat64(sum, s.LatencySum.Seconds())
			}
		})
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
