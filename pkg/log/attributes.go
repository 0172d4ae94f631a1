// Package log defines standard attribute keys for model training and decoding.
//
// Using these keys keeps log records consistent across the estimator, the
// Baum-Welch trainer and the command line tool. Keys follow a hierarchical
// naming convention (e.g. "model.name", "hmm.states").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "GaussianHMM"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "sample"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "hmm", "config", "cli"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the length T of the observation sequence.
	SamplesKey = "data.samples"

	// StatesKey indicates the number of hidden states.
	StatesKey = "hmm.states"
)

// Training Progress
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records the current EM iteration (1-based).
	IterationKey = "training.iteration"

	// LogLikelihoodKey records the log-likelihood computed by the forward pass.
	LogLikelihoodKey = "hmm.log_likelihood"

	// ImprovementKey records the log-likelihood change from the previous iteration.
	ImprovementKey = "hmm.improvement"

	// StatusKey records the terminal trainer state ("converged", "exhausted").
	StatusKey = "hmm.status"

	// ConvergedKey records whether training met the tolerance.
	ConvergedKey = "hmm.converged"

	// ToleranceKey records the convergence tolerance.
	ToleranceKey = "hyperparams.tolerance"

	// MaxIterationsKey records the iteration budget.
	MaxIterationsKey = "hyperparams.max_iterations"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationSample  = "sample"

	PhaseTraining  = "training"
	PhaseInference = "inference"
)
