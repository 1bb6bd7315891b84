package usage

// Rate is a linear price in USD per 1000 tokens.
type Rate struct {
	InputPer1K  float64 `yaml:"input_per_1k" json:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k" json:"output_per_1k"`
}

// DefaultRate is used for models missing from the rate table. The numbers are
// estimates.
var DefaultRate = Rate{InputPer1K: 0.01, OutputPer1K: 0.03}

type RateTable struct {
	Default Rate
	Models  map[string]Rate
}

func NewRateTable(models map[string]Rate) RateTable {
	return RateTable{Default: DefaultRate, Models: models}
}

func (r RateTable) rate(model string) Rate {
	if rate, ok := r.Models[model]; ok {
		return rate
	}
	if r.Default == (Rate{}) {
		return DefaultRate
	}
	return r.Default
}

// Cost prices one call of model.
func (r RateTable) Cost(model string, promptTokens, completionTokens int64) float64 {
	rate := r.rate(model)
	return float64(promptTokens)/1000*rate.InputPer1K + float64(completionTokens)/1000*rate.OutputPer1K
}
