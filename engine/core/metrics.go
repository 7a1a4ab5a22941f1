package core

import "sync"

const AVG_COUNT uint8 = 30

// MetricsState keeps a rolling average over the last AVG_COUNT rebuilds
// (synthesis plus vertex buffer packing) of a document.
type MetricsState struct {
	Samples       uint8
	Cursor        uint8
	MStimes       [AVG_COUNT]float64
	MSavg         float64
	MSlast        float64
	Rebuilds      int64
	VerticesTotal int64
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{}
	})
	return nil
}

// MetricsReset drops every recorded sample.
func MetricsReset() {
	MetricsInitialize()
	*metricsState = MetricsState{}
}

// MetricsUpdate records one rebuild that took rebuild_elapsed_time seconds
// and produced vertex_count vertices.
func MetricsUpdate(rebuild_elapsed_time float64, vertex_count int) {
	MetricsInitialize()

	rebuild_ms := rebuild_elapsed_time * 1000.0
	metricsState.MStimes[metricsState.Cursor] = rebuild_ms
	metricsState.Cursor = (metricsState.Cursor + 1) % AVG_COUNT
	if metricsState.Samples < AVG_COUNT {
		metricsState.Samples++
	}

	sum := 0.0
	for i := uint8(0); i < metricsState.Samples; i++ {
		sum += metricsState.MStimes[i]
	}
	metricsState.MSavg = sum / float64(metricsState.Samples)
	metricsState.MSlast = rebuild_ms

	metricsState.Rebuilds++
	metricsState.VerticesTotal += int64(vertex_count)
}

// MetricsRebuildTime returns the average rebuild time in milliseconds.
func MetricsRebuildTime() float64 {
	MetricsInitialize()
	return metricsState.MSavg
}

func MetricsRebuilds() int64 {
	MetricsInitialize()
	return metricsState.Rebuilds
}

func MetricsRebuild() (int64, float64, float64) {
	MetricsInitialize()
	return metricsState.Rebuilds, metricsState.MSlast, metricsState.MSavg
}
