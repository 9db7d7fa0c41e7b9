package params

type SimplificationConfig struct {
	// DouglasPeuckerThreshold is the tolerance, in normalized image units,
	// of the simplified overlay path.
	DouglasPeuckerThreshold float64 `mapstructure:"douglas-peucker-threshold"`
}

var DefaultSimplificationConfig = &SimplificationConfig{
	DouglasPeuckerThreshold: 0.002,
}
