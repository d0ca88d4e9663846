package boxkalman

// Chi2Inv95 holds the 0.95 quantile of the chi-square distribution with N
// degrees of freedom for N = 1..9, indexed by N (index 0 is unused). Values
// match MATLAB/Octave's chi2inv. Initialised once, never mutated.
//
// Association layers threshold squared gating distances against
// Chi2Inv95[4], or Chi2Inv95[2] when gating on the box centre only.
var Chi2Inv95 = [10]float64{
	0,
	3.8415,
	5.9915,
	7.8147,
	9.4877,
	11.070,
	12.592,
	14.067,
	15.507,
	16.919,
}
