package irt

import "math"

// relTol is the relative x tolerance used by brent (four machine epsilons).
const relTol = 4 * 2.220446049250313e-16

// brent finds a zero of f in [a, b] using Brent's method, combining
// bisection with secant and inverse quadratic interpolation steps.
// ok is false when f(a) and f(b) have the same sign, in which case no root
// is bracketed and nothing is evaluated beyond the endpoints.
func brent(f func(float64) float64, a, b, xtol float64, maxIter int) (root float64, ok bool) {
	xpre, xcur := a, b
	fpre, fcur := f(xpre), f(xcur)

	if fpre == 0 {
		return xpre, true
	}
	if fcur == 0 {
		return xcur, true
	}
	if math.Signbit(fpre) == math.Signbit(fcur) {
		return 0, false
	}

	var xblk, fblk, spre, scur float64
	for i := 0; i < maxIter; i++ {
		if fpre != 0 && fcur != 0 && math.Signbit(fpre) != math.Signbit(fcur) {
			xblk, fblk = xpre, fpre
			spre = xcur - xpre
			scur = spre
		}
		if math.Abs(fblk) < math.Abs(fcur) {
			xpre, xcur, xblk = xcur, xblk, xcur
			fpre, fcur, fblk = fcur, fblk, fcur
		}

		delta := (xtol + relTol*math.Abs(xcur)) / 2
		sbis := (xblk - xcur) / 2
		if fcur == 0 || math.Abs(sbis) < delta {
			return xcur, true
		}

		if math.Abs(spre) > delta && math.Abs(fcur) < math.Abs(fpre) {
			var stry float64
			if xpre == xblk {
				// secant
				stry = -fcur * (xcur - xpre) / (fcur - fpre)
			} else {
				// inverse quadratic interpolation
				dpre := (fpre - fcur) / (xpre - xcur)
				dblk := (fblk - fcur) / (xblk - xcur)
				stry = -fcur * (fblk*dblk - fpre*dpre) / (dblk * dpre * (fblk - fpre))
			}
			if 2*math.Abs(stry) < math.Min(math.Abs(spre), 3*math.Abs(sbis)-delta) {
				spre, scur = scur, stry
			} else {
				spre, scur = sbis, sbis
			}
		} else {
			spre, scur = sbis, sbis
		}

		xpre, fpre = xcur, fcur
		if math.Abs(scur) > delta {
			xcur += scur
		} else if sbis > 0 {
			xcur += delta
		} else {
			xcur -= delta
		}
		fcur = f(xcur)
	}
	return xcur, true
}
