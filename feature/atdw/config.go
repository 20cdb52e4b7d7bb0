package atdw

// Config holds configuration for the ATDW Atlas feed client.
type Config struct {
	// Endpoint is the base URL of the Atlas API.
	Endpoint string `mapstructure:"endpoint" default:"https://atlas.atdw-online.com.au/api/atlas"`

	// Key is the distributor API key. Required for any request.
	Key string `mapstructure:"key" default:""`

	// State filters the product listing to one state (e.g. NSW).
	State string `mapstructure:"state" default:""`

	// Categories filters the listing to the given comma separated
	// category codes (e.g. ACCOMM,ATTRACTION).
	Categories string `mapstructure:"categories" default:""`

	// PageSize is the number of products requested per listing page.
	// Atlas caps this at 5000.
	PageSize int `mapstructure:"page_size" default:"1000"`

	// RatePerSecond throttles outgoing requests.
	RatePerSecond int `mapstructure:"rate_per_second" default:"2"`

	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`

	// MaxRetries is how often a throttled or transient failure is
	// retried before giving up.
	MaxRetries int `mapstructure:"max_retries" default:"3"`

	// FetchDetail enables a per-product detail request for listing
	// entries, trading run time for richer records.
	FetchDetail bool `mapstructure:"fetch_detail" default:"false"`
}
