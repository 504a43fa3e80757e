package ids

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// instanceNamespace scopes card instance ids. Changing it changes every exported id.
var instanceNamespace = uuid.MustParse("6f1c8e2a-4b7d-5a93-9e10-2c5d7f8a3b61")

// InstanceID returns the id of the n-th card instance minted in a run. The id is a
// name-based (v5) UUID, so the same seed and counter always give the same id.
func InstanceID(runSeed int64, n uint64) string {
	name := strconv.FormatInt(runSeed, 10) + "/" + strconv.FormatUint(n, 10)
	return uuid.NewSHA1(instanceNamespace, []byte(name)).String()
}

func AgentName(id int) string { return fmt.Sprintf("Agent-%d", id) }

func AgentNick(id int) string { return fmt.Sprintf("A%d", id) }

// ParseAgentID accepts a bare id ("3"), a name ("Agent-3") or a nick ("A3").
func ParseAgentID(s string) (int, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "Agent-"):
		s = strings.TrimPrefix(s, "Agent-")
	case strings.HasPrefix(s, "A"):
		s = strings.TrimPrefix(s, "A")
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
