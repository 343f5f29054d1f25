package arima

// YuleWalker estimates AR coefficients from sample autocorrelations
// acf[0..order] with the Levinson-Durbin recursion. It returns nil when the
// autocorrelations are too short or the recursion breaks down.
func YuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order || acf[0] == 0 {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1] / acf[0]
	v := acf[0] * (1 - phi[0]*phi[0])

	for i := 1; i < order; i++ {
		if v <= 0 {
			return nil
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		// Update phi
		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}

	return phi
}
