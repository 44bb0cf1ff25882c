package magnet

import (
	"encoding/json"
	"io"
	stderrors "errors"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrInputLoad = stderrors.New("failed loading input file")

// backupEntry mirrors one object of a DMM backup file.
type backupEntry struct {
	Hash     *string `json:"hash"`
	Filename *string `json:"filename"`
}

// Parse decodes a JSON array of backup entries. Entries without a hash are skipped.
func Parse(r io.Reader) ([]Record, error) {
	var entries []backupEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errors.WithMessage(ErrInputLoad, err.Error())
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if e.Hash == nil {
			continue
		}

		var name string
		if e.Filename != nil {
			name = *e.Filename
		}

		rec, err := NewRecord(*e.Hash, name)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Load reads the backup file at path.
func Load(path string, log *logrus.Entry) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithMessage(ErrInputLoad, err.Error())
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}

	for _, rec := range records {
		if !rec.LooksValid() {
			log.Warnf("Unusual info-hash in %s: %q", path, rec.Hash)
		}
	}

	log.Infof("Loaded %d magnet links from %s", len(records), path)
	return records, nil
}
