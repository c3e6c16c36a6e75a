package pipeline

// Config holds pipeline settings loaded from the environment.
type Config struct {
	BaseURL    string `env:"API_BASE_URL,required"`
	UserAgent  string `env:"API_USER_AGENT" envDefault:"mlc-portal/1.0"`
	CSRFHeader string `env:"API_CSRF_HEADER" envDefault:"X-CSRF-Token"`
	Tracing    bool   `env:"API_TRACING" envDefault:"false"`
}
