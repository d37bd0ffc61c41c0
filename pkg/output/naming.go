package output

import (
	"os"
	"strings"

	"github.com/ccollicutt/threadsplit/pkg/partition"
)

const (
	threadFilePrefix   = "thread_"
	lastSeenFilePrefix = "last_"
)

var pathReplacer = buildPathReplacer()

func buildPathReplacer() *strings.Replacer {
	pairs := []string{"/", "_", "\x00", "_"}
	if os.PathSeparator != '/' {
		pairs = append(pairs, string(os.PathSeparator), "_")
	}
	return strings.NewReplacer(pairs...)
}

// sanitize keeps a name component from escaping the output directory.
func sanitize(component string) string {
	return pathReplacer.Replace(component)
}

// ThreadFileName returns thread_<ID>_<KEY>. key is a message type or
// partition.AllKey.
func ThreadFileName(threadID, key string) string {
	return threadFilePrefix + sanitize(threadID) + "_" + sanitize(key)
}

// ThreadAllFileName returns thread_<ID>_all.
func ThreadAllFileName(threadID string) string {
	return ThreadFileName(threadID, partition.AllKey)
}

// LastSeenFileName returns last_<TYPE>.
func LastSeenFileName(messageType string) string {
	return lastSeenFilePrefix + sanitize(messageType)
}
