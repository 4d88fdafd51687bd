package trackfit

// Config is the seedtrack configuration file.
type Config struct {
	Field              Field        `yaml:"field" json:"field"`
	SeedCollection     string       `yaml:"seedCollection" json:"seedCollection"`
	Cosmics            bool         `yaml:"cosmics,omitempty" json:"cosmics,omitempty"`
	VertexRadius       float64      `yaml:"vertexRadius,omitempty" json:"vertexRadius,omitempty"`             // cm (default 80)
	ChargeGapThreshold float64      `yaml:"chargeGapThreshold,omitempty" json:"chargeGapThreshold,omitempty"` // cm (default 10)
	CosmicFitLayers    *LayerWindow `yaml:"cosmicFitLayers,omitempty" json:"cosmicFitLayers,omitempty"`       // default [0, 58)
	Workers            int          `yaml:"workers,omitempty" json:"workers,omitempty"`
	MQTT               MQTTConfig   `yaml:"mqtt" json:"mqtt"`
	HTTP               HTTPConfig   `yaml:"http,omitempty" json:"http,omitempty"`
	Render             RenderConfig `yaml:"render,omitempty" json:"render,omitempty"`
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
	EventTopic    string `yaml:"eventTopic" json:"eventTopic"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
}

// HTTPConfig holds the service listener settings
type HTTPConfig struct {
	Port int `yaml:"port,omitempty" json:"port,omitempty"` // default 4040
}

// RenderConfig controls the event display
type RenderConfig struct {
	Padding float64 `yaml:"padding,omitempty" json:"padding,omitempty"` // cm around the drawn hits (default 5)
	Scale   float64 `yaml:"scale,omitempty" json:"scale,omitempty"`     // pixels per cm (default 4)
}

const (
	DefaultHTTPPort      = 4040
	DefaultRenderPadding = 5.0
	DefaultRenderScale   = 4.0
)

// BuilderConfig returns the converter configuration described by c.
func (c *Config) BuilderConfig() (BuilderConfig, error) {
	src, err := ParseSeedSource(c.SeedCollection)
	if err != nil {
		return BuilderConfig{}, err
	}
	bc := DefaultBuilderConfig()
	bc.Field = c.Field
	bc.Source = src
	bc.Cosmics = c.Cosmics
	if c.VertexRadius > 0 {
		bc.VertexRadius = c.VertexRadius
	}
	if c.ChargeGapThreshold > 0 {
		bc.ChargeGapThreshold = c.ChargeGapThreshold
	}
	if c.CosmicFitLayers != nil {
		bc.CosmicFitLayers = *c.CosmicFitLayers
	}
	return bc, nil
}

// HTTPPort returns the configured port or the default.
func (c *Config) HTTPPort() int {
	if c.HTTP.Port > 0 {
		return c.HTTP.Port
	}
	return DefaultHTTPPort
}

// RenderOptions returns the display settings with defaults applied.
func (c *Config) RenderOptions() RenderConfig {
	r := c.Render
	if r.Padding <= 0 {
		r.Padding = DefaultRenderPadding
	}
	if r.Scale <= 0 {
		r.Scale = DefaultRenderScale
	}
	return r
}
