// Package config defines the process configuration shared by
// cmd/certflow-api and cmd/certflow-worker, parsed from command-line flags
// with environment variable overrides via go-flags.
package config

import "time"

// Config is the top-level configuration object, mirroring the
// group/namespace layering of go/flow-ingester's runtime.FlowIngesterConfig.
type Config struct {
	Log struct {
		Level  string `long:"level" env:"LEVEL" default:"info" description:"Logging level"`
		Format string `long:"format" env:"FORMAT" default:"text" choice:"text" choice:"json" description:"Logging output format"`
	} `group:"Logging" namespace:"log" env-namespace:"LOG"`

	DB struct {
		Host     string `long:"host" env:"HOST" default:"localhost" description:"Postgres host"`
		Port     uint16 `long:"port" env:"PORT" default:"5432" description:"Postgres port"`
		User     string `long:"user" env:"USER" default:"certflow" description:"Postgres user"`
		Password string `long:"password" env:"PASSWORD" description:"Postgres password"`
		DBName   string `long:"name" env:"NAME" default:"certflow" description:"Postgres database name"`
		MaxConns int    `long:"max-conns" env:"MAX_CONNS" default:"10" description:"Maximum open connections"`
	} `group:"Database" namespace:"db" env-namespace:"DB"`

	ObjectStore struct {
		Region          string `long:"region" env:"REGION" default:"us-east-1" description:"Object store region"`
		Bucket          string `long:"bucket" env:"BUCKET" default:"certificates" description:"Object store bucket"`
		Endpoint        string `long:"endpoint" env:"ENDPOINT" description:"S3-compatible endpoint (empty for AWS default)"`
		ExternalEndpoint string `long:"external-endpoint" env:"EXTERNAL_ENDPOINT" description:"Endpoint used for presigned URLs, defaults to --endpoint"`
		AccessKeyID     string `long:"access-key-id" env:"ACCESS_KEY_ID" description:"Static access key"`
		SecretAccessKey string `long:"secret-access-key" env:"SECRET_ACCESS_KEY" description:"Static secret key"`
	} `group:"ObjectStore" namespace:"objectstore" env-namespace:"OBJECTSTORE"`

	Bus struct {
		Brokers []string `long:"broker" env:"BROKERS" env-delim:"," default:"localhost:9092" description:"Kafka-compatible bootstrap brokers"`
	} `group:"Bus" namespace:"bus" env-namespace:"BUS"`

	LLM struct {
		Provider    string        `long:"provider" env:"PROVIDER" default:"ollama" choice:"ollama" choice:"anthropic" description:"LLM provider"`
		Endpoint    string        `long:"endpoint" env:"ENDPOINT" default:"http://localhost:11434" description:"Provider base URL (ollama)"`
		Model       string        `long:"model" env:"MODEL" default:"llama3" description:"Model name"`
		APIKey      string        `long:"api-key" env:"API_KEY" description:"Provider API key (anthropic)"`
		Timeout     time.Duration `long:"timeout" env:"TIMEOUT" default:"90s" description:"Request timeout"`
	} `group:"LLM" namespace:"llm" env-namespace:"LLM"`

	OCR struct {
		Languages string        `long:"languages" env:"LANGUAGES" default:"por+eng" description:"Tesseract language set"`
		Timeout   time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"OCR per-file timeout (not read by the OCR adapter; no timeout is applied)"`
	} `group:"OCR" namespace:"ocr" env-namespace:"OCR"`

	HTTP struct {
		Port           uint16        `long:"port" env:"PORT" default:"8080" description:"HTTP listen port"`
		MaxUploadBytes int64         `long:"max-upload-bytes" env:"MAX_UPLOAD_BYTES" default:"16777216" description:"Maximum accepted upload size"`
		CorsOrigins    []string      `long:"cors-origin" env:"CORS_ORIGINS" env-delim:"," default:"*" description:"Allowed CORS origins"`
		PresignExpiry  time.Duration `long:"presign-expiry" env:"PRESIGN_EXPIRY" default:"1h" description:"Presigned download URL expiry (not read; the review and status services use a fixed one-hour expiry)"`
	} `group:"HTTP" namespace:"http" env-namespace:"HTTP"`
}
