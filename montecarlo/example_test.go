package montecarlo_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/lvfit/dataset"
	"github.com/katalvlaran/lvfit/model"
	"github.com/katalvlaran/lvfit/montecarlo"
)

func ExampleEstimate() {
	ds, _ := dataset.FromXY(
		[]float64{0.5, 1, 2, 4, 8, 16},
		[]float64{1.98, 3.31, 5.02, 6.71, 7.95, 8.92},
	)
	opts := montecarlo.DefaultOptions()
	opts.Trials = 200
	opts.Workers = 4
	opts.Seed = 7
	opts.ParamNames = []string{"vmax", "km"}

	rep, err := montecarlo.Estimate(context.Background(), ds, model.MichaelisMenten{}, []float64{5, 1}, opts)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(rep.Trials, len(rep.Params), rep.Params[0].Name)
	fmt.Println(rep.Params[0].Lower <= rep.Params[0].Upper)
	// Output:
	// 200 2 vmax
	// true
}
