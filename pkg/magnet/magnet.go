package magnet

import (
	"errors"
	"strings"

	"github.com/dlclark/regexp2"
)

var (
	ErrEmptyHash = errors.New("empty info-hash")

	// v1 info-hashes are 40 hex characters, or 32 base32 characters in older magnets.
	infoHashPattern = regexp2.MustCompile(`^(?:[0-9a-f]{40}|[a-z2-7]{32})$`, regexp2.IgnoreCase)
)

// Record is a single magnet entry: an info-hash plus an optional display name.
type Record struct {
	Hash string
	Name string
}

func NewRecord(hash string, name string) (Record, error) {
	if strings.TrimSpace(hash) == "" {
		return Record{}, ErrEmptyHash
	}

	return Record{Hash: hash, Name: name}, nil
}

// URI builds the magnet link submitted to the remote service.
func (r Record) URI() string {
	uri := "magnet:?xt=urn:btih:" + r.Hash
	if r.Name != "" {
		uri += "&dn=" + r.Name
	}
	return uri
}

// Key is the lowercase hash used for every set membership test.
func (r Record) Key() string {
	return strings.ToLower(r.Hash)
}

func (r Record) LooksValid() bool {
	ok, err := infoHashPattern.MatchString(r.Hash)
	return err == nil && ok
}
