package boost

import (
	"fmt"
	"math"

	"github.com/ezoic/oddvibe/pkg/errors"
	"github.com/ezoic/oddvibe/pkg/log"
	"github.com/ezoic/oddvibe/robust"
	"github.com/ezoic/oddvibe/sklearn/tree"
)

// DefaultLearningRate is the shrinkage applied to every stump.
const DefaultLearningRate = 0.1

// DefaultScaleFloor is the fraction of the initial robust scale below which
// the per-round scale is not allowed to fall.
const DefaultScaleFloor = 0.5

// progressEvery is the number of rounds between debug progress lines.
const progressEvery = 100

type options struct {
	learningRate   float64
	policy         robust.Policy
	maxFeatures    int
	minSamplesLeaf int
	bootstrap      bool
	scaleFloor     float64
	logger         log.Logger
}

// Option configures a Booster.
type Option func(*options)

// WithLearningRate sets the shrinkage ν applied to each stump, 0 < ν <= 1.
func WithLearningRate(rate float64) Option {
	return func(o *options) {
		o.learningRate = rate
	}
}

// WithPolicy sets the reweighting policy. The default is robust.Cauchy().
func WithPolicy(p robust.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithMaxFeatures limits the number of features each stump considers,
// drawn afresh every round. Zero uses every feature.
func WithMaxFeatures(k int) Option {
	return func(o *options) {
		o.maxFeatures = k
	}
}

// WithMinSamplesLeaf sets the minimum number of weighted rows per stump leaf.
func WithMinSamplesLeaf(m int) Option {
	return func(o *options) {
		o.minSamplesLeaf = m
	}
}

// WithBootstrap makes every round fit its stump on a weighted bootstrap
// resample of the rows instead of on the weights directly.
func WithBootstrap(enabled bool) Option {
	return func(o *options) {
		o.bootstrap = enabled
	}
}

// WithScaleFloor bounds the per-round robust scale from below by fraction
// times the scale of the residuals around the baseline. Late in a long run
// the ensemble fits most rows almost exactly and the median absolute
// deviation shrinks far below the noise level; the floor keeps ordinary
// noise from reading as an outlier. Zero disables the floor.
func WithScaleFloor(fraction float64) Option {
	return func(o *options) {
		o.scaleFloor = fraction
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = log.Nop()
		}
		o.logger = l
	}
}

func defaultOptions() options {
	return options{
		learningRate:   DefaultLearningRate,
		policy:         robust.Cauchy(),
		maxFeatures:    0,
		minSamplesLeaf: tree.DefaultMinSamplesLeaf,
		scaleFloor:     DefaultScaleFloor,
	}
}

// runLogger returns the configured logger, or a named logger from the
// global provider when none was set.
func (o options) runLogger() log.Logger {
	if o.logger != nil {
		return o.logger
	}
	return log.GetLoggerWithName("boost").With(
		log.ModelNameKey, "Booster",
		log.ComponentKey, "boost",
	)
}

func (o options) validate(op string) error {
	if !(o.learningRate > 0 && o.learningRate <= 1) || math.IsNaN(o.learningRate) {
		return errors.NewValueError(op,
			fmt.Sprintf("learning rate must be in (0, 1], got %v", o.learningRate))
	}
	if o.maxFeatures < 0 {
		return errors.NewValueError(op,
			fmt.Sprintf("max features must be >= 0, got %d", o.maxFeatures))
	}
	if o.minSamplesLeaf < 1 {
		return errors.NewValueError(op,
			fmt.Sprintf("min samples per leaf must be >= 1, got %d", o.minSamplesLeaf))
	}
	if !(o.scaleFloor >= 0 && o.scaleFloor <= 1) {
		return errors.NewValueError(op,
			fmt.Sprintf("scale floor must be in [0, 1], got %v", o.scaleFloor))
	}
	if err := o.policy.Validate(); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

func (o options) stumpOptions() []tree.StumpFitterOption {
	return []tree.StumpFitterOption{
		tree.WithMaxFeatures(o.maxFeatures),
		tree.WithMinSamplesLeaf(o.minSamplesLeaf),
	}
}
