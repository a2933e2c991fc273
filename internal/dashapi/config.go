package dashapi

// ConfigUser is one basic-auth credential pair
type ConfigUser struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Config defines the configuration structure for the dashboard API server
type Config struct {
	ServerName string       `mapstructure:"server_name"`
	Listen     string       `mapstructure:"listen"`
	BasicAuth  bool         `mapstructure:"basic_auth"`
	Debug      bool         `mapstructure:"debug"`
	Users      []ConfigUser `mapstructure:"users"`
}
