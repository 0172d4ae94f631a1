// Command regime trains a Gaussian HMM on closing prices, decodes market
// regimes and simulates forward paths.
//
//	regime train -i prices.csv --states 3 --model-out model.json --plot-dir out/
//	regime decode -i prices.csv model.json
//	regime simulate --length 20 model.json
package main

import (
	"context"

	"github.com/spf13/cobra"
)

func main() {
	cobra.CheckErr(NewCmd().ExecuteContext(context.Background()))
}
