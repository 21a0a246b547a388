package determinism

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// RunID derives a stable run identifier from the audited repository and
// commit. The same repository at the same commit always maps to the same
// run, so reruns overwrite their own artifacts instead of accumulating.
// Format: run-<12 hex chars>
func RunID(repoURL, commitHash string) string {
	input := fmt.Sprintf("%s|%s", repoURL, commitHash)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("run-%s", hex.EncodeToString(hash[:6]))
}
