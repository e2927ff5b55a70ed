package balance

import "math"

// lambertWOfExp returns W(e^y), the principal branch of the Lambert W function
// evaluated at e^y. Working in log space keeps large arguments from overflowing:
// w satisfies w + ln(w) = y.
func lambertWOfExp(y float64) float64 {
	var w float64
	if y > 1 {
		w = y - math.Log(y)
	} else {
		w = math.Exp(y) / (1 + math.Exp(y))
	}
	for i := 0; i < 100; i++ {
		f := w + math.Log(w) - y
		next := w - f/(1+1/w)
		if next <= 0 {
			next = w / 2
		}
		if math.Abs(next-w) <= 1e-14*math.Max(1, w) {
			return next
		}
		w = next
	}
	return w
}
