package config

import "time"

// APIGateway definition api_gateway YAML structure
type APIGateway struct {
	Port string `mapstructure:"port"`

	Mongo    DatabaseConfig `mapstructure:"mongo"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Queues   QueueConfig    `mapstructure:"queues"`
	Buckets  BucketConfig   `mapstructure:"buckets"`
}

// Converter definition converter_service YAML structure
type Converter struct {
	Mongo    DatabaseConfig `mapstructure:"mongo"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Queues   QueueConfig    `mapstructure:"queues"`
	Buckets  BucketConfig   `mapstructure:"buckets"`
	FFmpeg   FFmpegConfig   `mapstructure:"ffmpeg"`
}

// AuthConfig definition the external auth service address
type AuthConfig struct {
	Address string `mapstructure:"address"`
}

// QueueConfig definition broker queue names and consumer prefetch
type QueueConfig struct {
	Video    string `mapstructure:"video"`
	MP3      string `mapstructure:"mp3"`
	Prefetch int    `mapstructure:"prefetch"`
}

// BucketConfig definition GridFS bucket names
type BucketConfig struct {
	Videos string `mapstructure:"videos"`
	MP3s   string `mapstructure:"mp3s"`
}

// FFmpegConfig definition external converter tooling
type FFmpegConfig struct {
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
	TempDir     string `mapstructure:"temp_dir"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`
}

// RabbitMQConfig definition rabbitmq setting
type RabbitMQConfig struct {
	IP            string `mapstructure:"ip"`
	Port          string `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// Validate fill defaults for the optional converter settings
func (q *QueueConfig) Validate() {
	if q.Video == "" {
		q.Video = "video"
	}
	if q.MP3 == "" {
		q.MP3 = "mp3"
	}
	if q.Prefetch <= 0 {
		q.Prefetch = 1
	}
}

// Validate fill defaults for bucket names
func (b *BucketConfig) Validate() {
	if b.Videos == "" {
		b.Videos = "videos"
	}
	if b.MP3s == "" {
		b.MP3s = "mp3s"
	}
}

// Validate fill defaults for the ffmpeg tooling
func (f *FFmpegConfig) Validate() {
	if f.FFmpegPath == "" {
		f.FFmpegPath = "ffmpeg"
	}
	if f.FFprobePath == "" {
		f.FFprobePath = "ffprobe"
	}
	if f.TimeoutSec <= 0 {
		f.TimeoutSec = 600
	}
}

// Timeout converter execution bound
func (f FFmpegConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}
