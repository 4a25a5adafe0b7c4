// Package identity derives the stable keys that identify companies and
// postings. Key layouts are a wire contract with previously persisted data
// and must not change.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash returns the SHA-256 hex digest of the parts joined with "|".
func Hash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// JobKey builds the stable posting identity:
//
//	{source}_{company digest[:8]}_{id+title digest[:8]}
//
// Company name and title are trimmed and lowercased before hashing. The
// source job ID is trimmed but keeps its case: some ATS IDs are
// case-sensitive tokens.
func JobKey(source, companyName, sourceJobID, title string) string {
	companyPart := Hash(normalize(companyName))[:8]
	jobPart := Hash(strings.TrimSpace(sourceJobID), normalize(title))[:8]
	return fmt.Sprintf("%s_%s_%s", source, companyPart, jobPart)
}

// CompanyID builds the 16-hex company identity from the normalized name,
// or from name and domain when a domain is known.
func CompanyID(name, domain string) string {
	if domain != "" {
		return Hash(normalize(name), normalize(domain))[:16]
	}
	return Hash(normalize(name))[:16]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
