package runs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint is a content token for a run list. Two lists with the same
// fingerprint build identical graphs.
type Fingerprint string

// shape is the structural projection of a run that the graph depends on.
// Step types, links and metadata are deliberately left out so that
// annotating a run does not restart the layout.
type shape struct {
	Start    string   `json:"s"`
	Dest     string   `json:"d"`
	Articles []string `json:"a"`
}

// FingerprintOf hashes the structure of rs in order.
// The result is a full SHA-256 hex string.
func FingerprintOf(rs []Run) Fingerprint {
	shapes := make([]shape, len(rs))
	for i, r := range rs {
		shapes[i] = shape{Start: r.StartArticle, Dest: r.DestinationArticle, Articles: r.Articles()}
	}
	data, _ := json.Marshal(shapes)
	return Fingerprint(Hash(data))
}

// Short returns the first 12 hex characters, for logs.
func (f Fingerprint) Short() string {
	if len(f) < 12 {
		return string(f)
	}
	return string(f[:12])
}

// Hash returns the SHA-256 of data as 64 lowercase hex characters. The file
// cache keys its entries with it as well.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
