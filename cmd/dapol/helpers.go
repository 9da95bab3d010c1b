package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gtank/ristretto255"

	"github.com/silversixpence-crypto/dapol/pkg/dapol"
)

// secretsFile mirrors config.Secrets locally for the --secrets-file read.
type secretsFile struct {
	MasterSecret string `toml:"master_secret"`
}

func loadSecretFromFile(path string) (string, error) {
	var s secretsFile
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return "", fmt.Errorf("reading secrets file: %w", err)
	}
	if s.MasterSecret == "" {
		return "", fmt.Errorf("secrets file %s has no master_secret", path)
	}
	return s.MasterSecret, nil
}

// secretOrDefault builds a Secret from an explicit string if non-empty,
// else reuses the master secret (spec.md §6: salt flags are optional).
func secretOrDefault(explicit string, fallback dapol.Secret) (dapol.Secret, error) {
	if explicit == "" {
		return fallback, nil
	}
	return dapol.NewSecret([]byte(explicit))
}

func defaultRandSource() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func hasJSONExtension(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func parseHexHash(s string) (dapol.H256, error) {
	var h dapol.H256
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, fmt.Errorf("parsing root hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("root hash must be %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

func decodeCommitment(raw []byte) (*dapol.Commitment, error) {
	e := ristretto255.NewElement()
	if _, err := e.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding commitment: %w", err)
	}
	return e, nil
}

func decodeScalar(raw []byte) (*dapol.Scalar, error) {
	s := ristretto255.NewScalar()
	if _, err := s.SetCanonicalBytes(raw); err != nil {
		return nil, fmt.Errorf("decoding blinding factor: %w", err)
	}
	return s, nil
}

func serializeTreeToFile(tree *dapol.Tree, path string) error {
	data, err := tree.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing serialized tree: %w", err)
	}
	return nil
}

func writeRootDataFiles(tree *dapol.Tree, dir string) error {
	pub, sec := tree.RootData()
	timestamp := time.Now().Unix()

	pubData, err := json.Marshal(pub)
	if err != nil {
		return fmt.Errorf("marshaling public root data: %w", err)
	}
	secData, err := json.Marshal(sec)
	if err != nil {
		return fmt.Errorf("marshaling secret root data: %w", err)
	}

	pubPath := filepath.Join(dir, fmt.Sprintf("public_root_data_%d.json", timestamp))
	secPath := filepath.Join(dir, fmt.Sprintf("secret_root_data_%d.json", timestamp))

	if err := os.WriteFile(pubPath, pubData, 0o644); err != nil {
		return fmt.Errorf("writing public root data: %w", err)
	}
	if err := os.WriteFile(secPath, secData, 0o600); err != nil {
		return fmt.Errorf("writing secret root data: %w", err)
	}
	return nil
}

func readPublicRootData(path string) (dapol.PublicRootData, error) {
	var pub dapol.PublicRootData
	data, err := os.ReadFile(path)
	if err != nil {
		return pub, fmt.Errorf("reading public root data: %w", err)
	}
	if err := json.Unmarshal(data, &pub); err != nil {
		return pub, fmt.Errorf("parsing public root data: %w", err)
	}
	return pub, nil
}

func readSecretRootData(path string) (dapol.SecretRootData, error) {
	var sec dapol.SecretRootData
	data, err := os.ReadFile(path)
	if err != nil {
		return sec, fmt.Errorf("reading secret root data: %w", err)
	}
	if err := json.Unmarshal(data, &sec); err != nil {
		return sec, fmt.Errorf("parsing secret root data: %w", err)
	}
	return sec, nil
}
