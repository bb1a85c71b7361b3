package core

const (
	OneMegabyte = 1024 * 1024 // 1024 (1KB) * 1024 => 1MB
	OneGigabyte = 1024 * OneMegabyte

	DataDirName = "data" // Name of the Datafile Directory

	DefaultDataFileSize = 64 * OneMegabyte
	DefaultSyncInterval = 15 // seconds

	// Replies sent over the TCP protocol.
	ReplyOK      = "ok"
	ReplyNil     = "nil"
	ReplyTrue    = "true"
	ReplyFalse   = "false"
	ReplyPong    = "PONG!"
	ReplyInvalid = "Invalid Command"
)
