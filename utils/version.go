package utils

// Build metadata stamped in through ldflags, surfaced by the cli -version flag

var (
	Version = ""
	Branch  = "dev"
	Commit  = ""
)
