// Package node derives the environment's node identity and registers it
// against the resolved master.
package node

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// BaseName is the fallback node name used when no port was resolved.
const BaseName = "TaskEnv"

// ResolveName derives the node name from the resolved master port. It is a
// pure function: a positive port yields "TaskEnv_<port>", anything else the
// bare fallback.
func ResolveName(port int) string {
	if port > 0 {
		return BaseName + "_" + strconv.Itoa(port)
	}
	return BaseName
}

// anonymize appends a short random suffix so that multiple environments
// choosing the same base name can register concurrently.
func anonymize(name string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return name + "_" + suffix
}
