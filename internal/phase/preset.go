package phase

// Clock frequencies for the M1 Max preset, in hertz.
const (
	m1PCoreHz = 3228e6
	m1ECoreHz = 2064e6
	m1TimerHz = 24e6
)

// M1MaxSystem builds the showcase system modeled on the Apple M1 Max
// clock tree: performance cores at 3.228 GHz as alpha, efficiency cores
// at 2.064 GHz as beta, and the 24 MHz platform timer as observer.
func M1MaxSystem() *System {
	return NewSystem(
		mustClock("P-core", m1PCoreHz),
		mustClock("E-core", m1ECoreHz),
		mustClock("Timer", m1TimerHz),
	)
}

// SimpleSystem builds a small system from three arbitrary frequencies,
// named Alpha, Beta, and Observer. Intended for demos and tests; the
// canonical choice is 5, 3, and 1 Hz.
func SimpleSystem(alphaHz, betaHz, observerHz float64) (*System, error) {
	alpha, err := NewClock("Alpha", alphaHz)
	if err != nil {
		return nil, err
	}
	beta, err := NewClock("Beta", betaHz)
	if err != nil {
		return nil, err
	}
	observer, err := NewClock("Observer", observerHz)
	if err != nil {
		return nil, err
	}
	return NewSystem(alpha, beta, observer), nil
}

// mustClock builds a clock from known-good preset constants.
func mustClock(name string, hz float64) Clock {
	c, err := NewClock(name, hz)
	if err != nil {
		panic(err)
	}
	return c
}
