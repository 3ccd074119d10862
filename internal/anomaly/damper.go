// Package anomaly damps extraction confidence for readings whose price
// geometry looks unlike recently confirmed signals. It sits after scoring so
// the scorer stays deterministic; the damper only ever lowers confidence.
package anomaly

import (
	"math"
	"sync"

	goiforest "github.com/narumiruna/go-iforest/pkg/iforest"

	"chartwatch/internal/domain"
)

type Config struct {
	Threshold  float64
	DampMax    float64
	NumTrees   int
	SampleSize int
	MinSamples int
	MaxSamples int
}

func DefaultConfig() Config {
	return Config{
		Threshold:  0.62,
		DampMax:    0.5,
		NumTrees:   100,
		SampleSize: 256,
		MinSamples: 32,
		MaxSamples: 2048,
	}
}

// Damper maintains a sliding window of feature vectors from confirmed
// readings and an isolation forest fitted over them. Until MinSamples
// observations have arrived it is a no-op.
type Damper struct {
	cfg Config

	mu      sync.Mutex
	samples [][]float64
	means   []float64
	stds    []float64
	forest  *goiforest.IsolationForest
	stale   bool
}

func New(cfg Config) *Damper {
	def := DefaultConfig()
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		cfg.Threshold = def.Threshold
	}
	if cfg.DampMax < 0 || cfg.DampMax > 1 {
		cfg.DampMax = def.DampMax
	}
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = def.NumTrees
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.MaxSamples < cfg.MinSamples {
		cfg.MaxSamples = def.MaxSamples
	}
	return &Damper{cfg: cfg}
}

// Observe records a confirmed reading's geometry as a normal sample. The
// forest is refitted lazily on the next Damp call.
func (d *Damper) Observe(reading domain.RawReading) {
	features, ok := featureVector(reading)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.samples = append(d.samples, features)
	if len(d.samples) > d.cfg.MaxSamples {
		d.samples = d.samples[len(d.samples)-d.cfg.MaxSamples:]
	}
	d.stale = true
}

// Damp returns the possibly lowered confidence for the reading. Readings with
// no usable geometry, or a window below MinSamples, pass through unchanged.
func (d *Damper) Damp(reading domain.RawReading, confidence int) int {
	features, ok := featureVector(reading)
	if !ok {
		return confidence
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.samples) < d.cfg.MinSamples {
		return confidence
	}
	if d.stale || d.forest == nil {
		d.refit()
	}

	score := d.scoreLocked(features)
	if score < d.cfg.Threshold {
		return confidence
	}
	factor := 1 - d.cfg.DampMax*score
	if factor < 0 {
		factor = 0
	}
	return int(math.Round(float64(confidence) * factor))
}

func (d *Damper) refit() {
	d.means, d.stds = fitNormalizer(d.samples)
	normalized := make([][]float64, len(d.samples))
	for i := range d.samples {
		normalized[i] = normalize(d.samples[i], d.means, d.stds)
	}
	sampleSize := d.cfg.SampleSize
	if sampleSize > len(normalized) {
		sampleSize = len(normalized)
	}
	forest := goiforest.NewWithOptions(goiforest.Options{
		DetectionType: goiforest.DetectionTypeThreshold,
		Threshold:     d.cfg.Threshold,
		NumTrees:      d.cfg.NumTrees,
		SampleSize:    sampleSize,
	})
	forest.Fit(normalized)
	d.forest = forest
	d.stale = false
}

func (d *Damper) scoreLocked(features []float64) float64 {
	scores := d.forest.Score([][]float64{normalize(features, d.means, d.stds)})
	if len(scores) == 0 {
		return 0
	}
	score := scores[0]
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// featureVector reduces a reading to entry-relative geometry so symbols at
// very different absolute prices share one feature space.
func featureVector(reading domain.RawReading) ([]float64, bool) {
	if reading.Entry == nil || *reading.Entry <= 0 {
		return nil, false
	}
	entry := *reading.Entry

	riskPct := 0.0
	if reading.StopLoss != nil {
		riskPct = math.Abs(entry-*reading.StopLoss) / entry * 100
	}
	rewardPct := 0.0
	if n := len(reading.TakeProfits); n > 0 {
		rewardPct = math.Abs(reading.TakeProfits[n-1]-entry) / entry * 100
	}
	rr := 0.0
	if riskPct > 0 {
		rr = rewardPct / riskPct
	}
	return []float64{riskPct, rewardPct, rr, float64(len(reading.TakeProfits))}, true
}

func fitNormalizer(samples [][]float64) ([]float64, []float64) {
	featureCount := len(samples[0])
	means := make([]float64, featureCount)
	stds := make([]float64, featureCount)
	for j := 0; j < featureCount; j++ {
		for i := range samples {
			means[j] += samples[i][j]
		}
		means[j] /= float64(len(samples))
		for i := range samples {
			diff := samples[i][j] - means[j]
			stds[j] += diff * diff
		}
		stds[j] = math.Sqrt(stds[j] / float64(len(samples)))
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	return means, stds
}

func normalize(in, means, stds []float64) []float64 {
	out := make([]float64, len(in))
	for i := range in {
		out[i] = (in[i] - means[i]) / stds[i]
	}
	return out
}
