package config

// FilterConfiguration holds expr expressions evaluated against each loaded record.
type FilterConfiguration struct {
	Include []string `koanf:"include"`
	Exclude []string `koanf:"exclude"`
}
