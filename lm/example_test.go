package lm_test

import (
	"fmt"

	"github.com/katalvlaran/lvfit/dataset"
	"github.com/katalvlaran/lvfit/lm"
	"github.com/katalvlaran/lvfit/model"
)

func ExampleFit() {
	ds, _ := dataset.FromXY([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7})

	res, err := lm.Fit(ds, model.Linear{}, []float64{1, 1}, lm.DefaultOptions())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s a=%.4f b=%.4f\n", res.Status, res.Params[0], res.Params[1])
	// Output:
	// converged a=2.0000 b=1.0000
}
