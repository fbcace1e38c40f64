package config

import "time"

const (
	// MaxHeaderBytes is the maximum accumulated size of an incoming HTTP
	// request head. Exceeding it is answered with 431 and the connection
	// reads no further.
	MaxHeaderBytes = 8 * 1024

	// MaxChangeBodyBytes limits POST bodies on the change endpoint.
	// 128 MB is about 6 hours of Base64 encoded 32kbps mono audio.
	MaxChangeBodyBytes = 128 * 1024 * 1024

	// DefaultIdleTimeout is intentionally low to limit bad behavior.
	// Handlers can raise it per connection.
	DefaultIdleTimeout = 20 * time.Second

	// DefaultMaxConnectionDuration bounds a connection's total lifetime.
	DefaultMaxConnectionDuration = 60 * time.Second

	// StreamMaxConnectionDuration replaces the default lifetime bound
	// while a recording is being streamed.
	StreamMaxConnectionDuration = 10 * time.Minute

	// DefaultRemotePort is the conventional port the client probes when
	// neither discovery nor RECORDINGS_REMOTE_URL names a server.
	DefaultRemotePort = 47328

	// FileExtension is appended to a recording's UUID to name its
	// backing audio file.
	FileExtension = ".m4a"

	// AudioMIMEType is the fixed content type for streamed recordings.
	AudioMIMEType = "audio/mp4"
)
