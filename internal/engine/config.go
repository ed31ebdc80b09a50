package engine

// Config collects the tunable session constants. The defaults come
// from classroom trials; treat them as configuration, not law.
type Config struct {
	// How many exercises each test phase asks for.
	PretestCount  int
	PracticeCount int
	PosttestCount int

	// PretestPassScore is the percentage above which the learner
	// skips most of the theory.
	PretestPassScore float64

	// PosttestPassScore is the percentage needed to pass the lesson.
	PosttestPassScore float64

	// ReteachAfterWrong is the consecutive-wrong count that triggers
	// an alternate theory chunk mid-practice.
	ReteachAfterWrong int

	// RecapChars caps the length of the single-chunk recap.
	RecapChars int

	// EventBuffer sizes the session's event channel.
	EventBuffer int
}

// withDefaults fills every zero field from DefaultConfig. Fields set
// by the caller are kept as given.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PretestCount == 0 {
		c.PretestCount = def.PretestCount
	}
	if c.PracticeCount == 0 {
		c.PracticeCount = def.PracticeCount
	}
	if c.PosttestCount == 0 {
		c.PosttestCount = def.PosttestCount
	}
	if c.PretestPassScore == 0 {
		c.PretestPassScore = def.PretestPassScore
	}
	if c.PosttestPassScore == 0 {
		c.PosttestPassScore = def.PosttestPassScore
	}
	if c.ReteachAfterWrong == 0 {
		c.ReteachAfterWrong = def.ReteachAfterWrong
	}
	if c.RecapChars == 0 {
		c.RecapChars = def.RecapChars
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = def.EventBuffer
	}
	return c
}

// DefaultConfig returns the trial-tuned defaults.
func DefaultConfig() Config {
	return Config{
		PretestCount:      3,
		PracticeCount:     8,
		PosttestCount:     5,
		PretestPassScore:  70,
		PosttestPassScore: 75,
		ReteachAfterWrong: 3,
		RecapChars:        220,
		EventBuffer:       64,
	}
}
