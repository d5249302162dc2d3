package log

// Well-known structured logging keys.
const (
	LoggerNameKey = "logger"
	ModelNameKey  = "model_name"
	ComponentKey  = "component"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "n_samples"
	FeaturesKey   = "n_features"
	IterationKey  = "iteration"
	IterationsKey = "n_iterations"
	SkippedKey    = "n_skipped"
	ScaleKey      = "scale"
	SeedKey       = "seed"
	DurationMsKey = "duration_ms"
	ErrorKey      = "error"
	PathKey       = "path"
	RunIDKey      = "run_id"
	AddressKey    = "address"
	StatusKey     = "status"
)

// Operation and phase values.
const (
	OperationFit     = "fit"
	OperationWeights = "find_outlier_weights"
	OperationRefit   = "refit"

	PhaseValidation = "validation"
	PhaseBoosting   = "boosting"
	PhaseConverged  = "converged"
)
