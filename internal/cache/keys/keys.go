package keys

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// resultPrefix is bumped whenever the stored result encoding changes.
const resultPrefix = "jump:result:v2"

// ResultKey identifies a solve result by locator backend, solver fingerprint
// (template and calibration) and frame content. The frame length is part of
// the key so a hash collision also needs equal sizes.
func ResultKey(backend string, solverFP uint64, frame []byte) string {
	return fmt.Sprintf("%s:b=%s:t=%016x:f=%016x:n=%d", resultPrefix, backend, solverFP, xxhash.Sum64(frame), len(frame))
}
