package main

import (
	"context"
	"math"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/linear"
	"github.com/ezoic/oddvibe/metrics"
)

// fitSummary describes one linear fit.
type fitSummary struct {
	Intercept    float64   `json:"intercept" yaml:"intercept"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
	R2           float64   `json:"r2" yaml:"r2"`
	WeightedR2   float64   `json:"weighted_r2" yaml:"weighted_r2"`
	MedianAE     float64   `json:"median_abs_error" yaml:"median_abs_error"`
	MaskedRMSE   *float64  `json:"inlier_rmse,omitempty" yaml:"inlier_rmse,omitempty"`
}

// refitResult compares ordinary least squares with the fit weighted by the
// outlier weights.
type refitResult struct {
	Rows       int         `json:"rows" yaml:"rows"`
	Suspicious []int       `json:"suspicious" yaml:"suspicious"`
	OLS        *fitSummary `json:"ols" yaml:"ols"`
	Weighted   *fitSummary `json:"weighted" yaml:"weighted"`
}

func newRefitCmd() *cli.Command {
	return &cli.Command{
		Name:   "refit",
		Usage:  "Compares a plain linear fit with one weighted by the outlier weights",
		Flags:  runFlags(append(dataFlags(), topFlagWithDefault(10))...),
		Action: cmdRefit,
	}
}

func cmdRefit(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	X, y, err := readData(cmd)
	if err != nil {
		return err
	}
	report, err := fitReport(cfg, X, y)
	if err != nil {
		return err
	}

	res, err := compareFits(X, y, report.Weights, nil)
	if err != nil {
		return err
	}
	res.Suspicious = report.MostSuspicious(cmd.Int(topFlag))
	return printResult(cmd, res)
}

// compareFits fits X and y twice, unweighted and with weights, and scores
// both. When mask is set, each summary also reports the RMSE over the rows
// the mask weights.
func compareFits(X mat.Matrix, y *mat.VecDense, weights, mask []float64) (*refitResult, error) {
	ols := linear.NewLinearRegression()
	if err := ols.Fit(X, y); err != nil {
		return nil, err
	}
	weighted := linear.NewLinearRegression()
	if err := weighted.FitWeighted(X, y, weights); err != nil {
		return nil, err
	}

	res := &refitResult{Rows: y.Len()}
	var err error
	if res.OLS, err = summarize(ols, X, y, weights, mask); err != nil {
		return nil, err
	}
	if res.Weighted, err = summarize(weighted, X, y, weights, mask); err != nil {
		return nil, err
	}
	return res, nil
}

func summarize(lr *linear.LinearRegression, X mat.Matrix, y *mat.VecDense, weights, mask []float64) (*fitSummary, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return nil, err
	}

	s := &fitSummary{
		Intercept:    lr.GetIntercept(),
		Coefficients: lr.GetWeights(),
	}
	if s.R2, err = metrics.R2Score(y, pred); err != nil {
		return nil, err
	}
	if s.WeightedR2, err = metrics.WeightedR2Score(y, pred, weights); err != nil {
		return nil, err
	}
	if s.MedianAE, err = metrics.MedianAbsoluteError(y, pred); err != nil {
		return nil, err
	}
	if mask != nil {
		mse, err := metrics.WeightedMSE(y, pred, mask)
		if err != nil {
			return nil, err
		}
		rmse := math.Sqrt(mse)
		s.MaskedRMSE = &rmse
	}
	return s, nil
}
