package bankacct

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		ConnectionString string `yaml:"conn_str"`
	} `yaml:"database"`
	Customers struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"customers"`
	Limits struct {
		CreateAccount int64 `yaml:"create_account"`
		Charge        int64 `yaml:"charge"`
		Query         int64 `yaml:"query"`
	} `yaml:"limits"`
}
