package config

import (
	"time"

	"github.com/spf13/pflag"
)

// RegisterFlags adds the flags Load understands. Defaults live in Load, so
// a flag only wins when it is set explicitly or nothing else provides its key.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("api-key", "", "TorBox API key (default: TORBOX_API_KEY env var)")
	fs.String("input-file", DefaultInputFile, "DMM backup JSON file (default: DMM_BACKUP_JSON_FILE env var or dmm-backup.json)")
	fs.String("base-url", DefaultBaseURL, "TorBox API base URL")
	fs.Bool("dry-run", false, "Perform a dry run without making any changes")
	fs.Bool("no-log-file", false, "Disable logging to file")
	fs.StringP("log", "l", "", "Log file (default: torbox_sync_<start time>.log)")
	fs.Int("max-retries", 3, "Attempts per API call")
	fs.Duration("delay", 5*time.Second, "Pause between submitted torrents; also the retry backoff base and the per-call pacing unit")
	fs.Duration("timeout", 30*time.Second, "HTTP timeout per attempt")
	fs.StringSlice("filter", nil, "Only import records matching one of these expressions")
	fs.StringSlice("exclude", nil, "Skip records matching any of these expressions")
}
