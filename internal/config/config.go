package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime knob of the service. It is parsed once in main
// and passed down explicitly; nothing reads the environment after startup.
type Config struct {
	Addr    string `env:"ADDR"     envDefault:":8000"`
	DBPath  string `env:"DB_PATH"  envDefault:"data/newsdesk.sqlite"`
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	SummaryProvider string        `env:"SUMMARY_PROVIDER"  envDefault:"openai"`
	SummaryModel    string        `env:"SUMMARY_MODEL"`
	SummaryMaxChars int           `env:"SUMMARY_MAX_CHARS" envDefault:"1000"`
	SummaryTimeout  time.Duration `env:"SUMMARY_TIMEOUT"   envDefault:"60s"`
	// SummaryStrict aborts an ingestion when summarization fails. The default
	// keeps the article with an empty summary and leaves it to the backfill job.
	SummaryStrict bool `env:"SUMMARY_STRICT" envDefault:"false"`
	// SummaryBackfillSpec is a cron spec for re-attempting empty summaries.
	// Empty disables the job.
	SummaryBackfillSpec string `env:"SUMMARY_BACKFILL_SPEC" envDefault:"*/30 * * * *"`

	SpeechProvider string        `env:"SPEECH_PROVIDER" envDefault:"openai"`
	SpeechVoice    string        `env:"SPEECH_VOICE"`
	SpeechFormat   string        `env:"SPEECH_FORMAT"  envDefault:"mp3"`
	SpeechSpeed    float64       `env:"SPEECH_SPEED"   envDefault:"1.0"`
	SpeechTimeout  time.Duration `env:"SPEECH_TIMEOUT" envDefault:"60s"`

	AzureSpeechKey    string `env:"AZURE_SPEECH_KEY"`
	AzureSpeechRegion string `env:"AZURE_SPEECH_REGION"`

	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
