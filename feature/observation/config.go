package observation

// Config holds observation mutation settings.
type Config struct {
	// MaxIdentifierAttempts bounds collision retries when drawing a source id.
	MaxIdentifierAttempts int `mapstructure:"max_identifier_attempts" default:"16"`
	// MaxInsertAttempts bounds re-allocation when an insert hits a taken source id.
	MaxInsertAttempts int `mapstructure:"max_insert_attempts" default:"3"`
	// MaxFiles is the number of media files accepted per request.
	MaxFiles int `mapstructure:"max_files" default:"10"`
}
