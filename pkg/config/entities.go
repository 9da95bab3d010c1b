package config

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/silversixpence-crypto/dapol/pkg/dapol"
)

// entitiesCSVHeader is the required header of an entities file
// (spec.md §6 "Entities file (CSV)").
var entitiesCSVHeader = []string{"entity_id", "liability"}

// LoadEntitiesFile parses a CSV entities file: header `entity_id,liability`,
// one record per line.
func LoadEntitiesFile(path string) ([]dapol.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: opening entities file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("config: reading entities header: %w", err)
	}
	if len(header) != 2 || header[0] != entitiesCSVHeader[0] || header[1] != entitiesCSVHeader[1] {
		return nil, fmt.Errorf("config: entities file header must be %q", strings.Join(entitiesCSVHeader, ","))
	}

	var entities []dapol.Entity
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("config: reading entities record: %w", err)
		}
		liability, err := strconv.ParseUint(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: parsing liability for entity %q: %w", record[0], err)
		}
		entities = append(entities, dapol.Entity{ID: []byte(record[0]), Liability: liability})
	}

	return entities, nil
}

// GenerateRandomEntities synthesizes n entities with random liabilities
// in [1, maxLiability], for the `--random-entities` CLI flag.
func GenerateRandomEntities(n int, maxLiability uint64, source *rand.Rand) []dapol.Entity {
	entities := make([]dapol.Entity, n)
	for i := 0; i < n; i++ {
		liability := uint64(source.Int63n(int64(maxLiability))) + 1
		entities[i] = dapol.Entity{ID: []byte(fmt.Sprintf("entity-%d", i)), Liability: liability}
	}
	return entities
}

// LoadEntityIDs parses the --entity-ids argument to gen-proofs: either a
// path to a newline-separated ID list, or "-" for stdin. Blank lines are
// skipped.
func LoadEntityIDs(pathOrDash string) ([][]byte, error) {
	var r io.Reader
	if pathOrDash == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(pathOrDash)
		if err != nil {
			return nil, fmt.Errorf("config: opening entity-ids file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var ids [][]byte
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, []byte(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading entity-ids: %w", err)
	}
	return ids, nil
}
