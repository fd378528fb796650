package assist

// MaxSourceChars caps the source text sent to the model.
const MaxSourceChars = 12000

// maxURLs caps the links turned into citations.
const maxURLs = 10

// Config holds generation settings.
type Config struct {
	MaxTokens      int
	Temperature    float64
	MaxSourceChars int
}

// DefaultConfig returns the defaults used by the server and CLI.
func DefaultConfig() Config {
	return Config{
		MaxTokens:      1500,
		Temperature:    0.2,
		MaxSourceChars: MaxSourceChars,
	}
}
