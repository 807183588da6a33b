package config

// Default returns the embedded configuration used when no config file is
// supplied. Prices are USD per million tokens.
func Default() Config {
	return Config{
		Pricing: map[string]ModelPricing{
			"claude-opus-4-20250514":     {Input: 15.0, Output: 75.0, Cached: 1.5},
			"claude-opus-4-1-20250805":   {Input: 15.0, Output: 75.0, Cached: 1.5},
			"claude-sonnet-4-20250514":   {Input: 3.0, Output: 15.0, Cached: 0.3},
			"claude-sonnet-4-5-20250929": {Input: 3.0, Output: 15.0, Cached: 0.3},
			"claude-3-7-sonnet-20250219": {Input: 3.0, Output: 15.0, Cached: 0.3},
			"claude-3-5-sonnet-20241022": {Input: 3.0, Output: 15.0, Cached: 0.3},
			"claude-3.5-sonnet-20241022": {Input: 3.0, Output: 15.0, Cached: 0.3},
			"claude-3-5-sonnet-20240620": {Input: 3.0, Output: 15.0, Cached: 0.3},
			"claude-haiku-4-5-20251001":  {Input: 1.0, Output: 5.0, Cached: 0.1},
			"claude-3-5-haiku-20241022":  {Input: 0.8, Output: 4.0, Cached: 0.08},
			"claude-3-haiku-20240307":    {Input: 0.25, Output: 1.25, Cached: 0.03},
			"claude-3-opus-20240229":     {Input: 15.0, Output: 75.0, Cached: 1.5},
		},
		Plans: map[string]PlanLimits{
			"pro": {
				"sonnet4": {Min: 40_000, Max: 80_000},
				"haiku4":  {Min: 120_000, Max: 240_000},
			},
			"max5x": {
				"sonnet4": {Min: 200_000, Max: 400_000},
				"opus4":   {Min: 15_000, Max: 35_000},
				"haiku4":  {Min: 600_000, Max: 1_200_000},
			},
			"max20x": {
				"sonnet4": {Min: 1_000_000, Max: 2_000_000},
				"opus4":   {Min: 100_000, Max: 200_000},
				"haiku4":  {Min: 3_000_000, Max: 6_000_000},
			},
		},
		TokensPerHour: map[string]HourRate{
			"opus4":   {MinTokensPerHour: 10_000, MaxTokensPerHour: 25_000},
			"sonnet4": {MinTokensPerHour: 30_000, MaxTokensPerHour: 60_000},
			"sonnet3": {MinTokensPerHour: 30_000, MaxTokensPerHour: 60_000},
			"haiku4":  {MinTokensPerHour: 50_000, MaxTokensPerHour: 100_000},
			"haiku3":  {MinTokensPerHour: 50_000, MaxTokensPerHour: 100_000},
			"opus3":   {MinTokensPerHour: 10_000, MaxTokensPerHour: 25_000},
		},
		BatchAPIDiscount: 0.5,
	}
}
