package config

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level,omitempty"`
	JSONFormat bool            `yaml:"json_format" json:"json_format,omitempty"`
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode,omitempty"`
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"`
}

// IsCategoryEnabled returns whether logging is enabled for a category.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}
