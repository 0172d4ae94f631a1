// Package hmmgo provides a continuous-emission hidden Markov model engine for Go,
// aimed at detecting market regimes in price return series.
//
// Each hidden state emits a univariate Gaussian. hmmgo trains the model with
// Baum-Welch (scaled forward-backward plus EM re-estimation), decodes the most
// likely state path with Viterbi and simulates future observations.
//
// # Installation
//
//	go get github.com/YuminosukeSato/hmmgo
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/hmmgo/hmm"
//	)
//
//	func main() {
//	    returns := []float64{0.4, 0.6, -1.2, -0.9, -1.5, 0.5, 0.7}
//
//	    est := hmm.NewGaussianHMM(hmm.WithNStates(2), hmm.WithRandomState(42))
//	    if err := est.Fit(returns); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    path, err := est.Predict(returns)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(est.Model())
//	    fmt.Println("states:", path)
//	}
//
// # Packages
//
//   - hmm: model, forward-backward, Baum-Welch, Viterbi, sampling and the GaussianHMM estimator
//   - preprocessing: percent and log returns from closing prices
//   - metrics: confusion matrix, permutation accuracy and per-regime summaries
//   - plotting: log-likelihood trace and regime charts (PNG)
//   - core/model: estimator interfaces, weight export and gob persistence
//   - core/parallel: chunked parallel loops
//   - pkg/errors, pkg/log: structured errors, warnings and logging
//   - cmd/regime: command line tool (train, decode, simulate)
//
// # Numerical behaviour
//
// Forward and backward passes are scaled per time step, so long sequences do
// not underflow. Time steps where every state has zero density are left at zero
// and counted in Diagnostics instead of aborting training.
//
// # License
//
// hmmgo is released under the MIT License.
package hmmgo
