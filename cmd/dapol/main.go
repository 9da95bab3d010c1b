// Command dapol drives tree construction and proof generation/verification
// for the DAPOL+ proof-of-liabilities accumulator (spec.md §6).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/silversixpence-crypto/dapol/pkg/config"
	"github.com/silversixpence-crypto/dapol/pkg/dapol"
	"github.com/silversixpence-crypto/dapol/pkg/log"
)

var verbosityFlag = &cli.IntFlag{
	Name:  "verbosity",
	Usage: "log verbosity, 0 (silent) to 4 (debug)",
	Value: 3,
}

func main() {
	app := &cli.App{
		Name:  "dapol",
		Usage: "build proof-of-liabilities trees and inclusion proofs",
		Commands: []*cli.Command{
			buildTreeCommand(),
			genProofsCommand(),
			verifyInclusionProofCommand(),
			verifyRootCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "dapol:", err)
		os.Exit(1)
	}
}

func setVerbosity(c *cli.Context) {
	level := log.VerbosityToLevel(c.Int("verbosity"))
	log.SetDefault(log.New(level))
}

func buildTreeCommand() *cli.Command {
	return &cli.Command{
		Name:  "build-tree",
		Usage: "construct a proof-of-liabilities tree",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "build a tree from explicit flags",
				Flags: []cli.Flag{
					verbosityFlag,
					&cli.StringFlag{Name: "accumulator-type", Value: string(dapol.NDMSMT)},
					&cli.StringFlag{Name: "salt-b"},
					&cli.StringFlag{Name: "salt-s"},
					&cli.IntFlag{Name: "height", Value: 32},
					&cli.Uint64Flag{Name: "max-liability", Value: 1 << 40},
					&cli.IntFlag{Name: "max-thread-count", Value: dapol.DefaultMaxThreadCount},
					&cli.StringFlag{Name: "secrets-file"},
					&cli.StringFlag{Name: "entities-file"},
					&cli.IntFlag{Name: "random-entities"},
					&cli.StringFlag{Name: "gen-proofs"},
					&cli.StringFlag{Name: "serialize"},
					&cli.StringFlag{Name: "root-serialize"},
				},
				Action: runBuildTreeNew,
			},
			{
				Name:      "config-file",
				Usage:     "build a tree from a TOML config file",
				ArgsUsage: "<path.toml>",
				Flags:     []cli.Flag{verbosityFlag},
				Action:    runBuildTreeConfigFile,
			},
			{
				Name:      "deserialize",
				Usage:     "load a previously serialized tree",
				ArgsUsage: "<tree-path>",
				Flags:     []cli.Flag{verbosityFlag},
				Action:    runBuildTreeDeserialize,
			},
		},
	}
}

func runBuildTreeNew(c *cli.Context) error {
	setVerbosity(c)

	entitiesFile := c.String("entities-file")
	randomN := c.Int("random-entities")
	if (entitiesFile == "") == (randomN == 0) {
		return fmt.Errorf("exactly one of --entities-file or --random-entities is required")
	}

	height, err := dapol.NewHeight(uint8(c.Int("height")))
	if err != nil {
		return err
	}

	loaded, err := loadEntities(entitiesFile, randomN, c.Uint64("max-liability"))
	if err != nil {
		return err
	}

	if c.String("secrets-file") == "" {
		return fmt.Errorf("--secrets-file is required")
	}
	masterSecretStr, err := loadSecretFromFile(c.String("secrets-file"))
	if err != nil {
		return err
	}
	masterSecret, err := dapol.NewSecret([]byte(masterSecretStr))
	if err != nil {
		return err
	}

	saltB, err := secretOrDefault(c.String("salt-b"), masterSecret)
	if err != nil {
		return err
	}
	saltS, err := secretOrDefault(c.String("salt-s"), masterSecret)
	if err != nil {
		return err
	}

	tree, err := dapol.NewTree(
		dapol.AccumulatorType(c.String("accumulator-type")),
		masterSecret, saltB, saltS,
		c.Uint64("max-liability"),
		dapol.DefaultUpperBoundBitLength,
		height,
		height.DefaultStoreDepth(),
		c.Int("max-thread-count"),
		loaded,
		nil,
	)
	if err != nil {
		return err
	}

	slog.Info("tree built", "entities", len(loaded), "root_hash", fmt.Sprintf("%x", tree.RootHash().Bytes()))

	if out := c.String("serialize"); out != "" {
		if err := serializeTreeToFile(tree, out); err != nil {
			return err
		}
	}
	if dir := c.String("root-serialize"); dir != "" {
		if err := writeRootDataFiles(tree, dir); err != nil {
			return err
		}
	}
	if idsPath := c.String("gen-proofs"); idsPath != "" {
		ids, err := config.LoadEntityIDs(idsPath)
		if err != nil {
			return err
		}
		for _, id := range ids {
			proof, err := tree.GenerateInclusionProof(id)
			if err != nil {
				return fmt.Errorf("generating proof for %q: %w", id, err)
			}
			data, err := proof.MarshalBinary()
			if err != nil {
				return err
			}
			if err := os.WriteFile(fmt.Sprintf("%s.dapolproof", id), data, 0o600); err != nil {
				return fmt.Errorf("writing proof for %q: %w", id, err)
			}
		}
	}

	return nil
}

func loadEntities(entitiesFile string, randomN int, maxLiability uint64) ([]dapol.Entity, error) {
	if entitiesFile != "" {
		return config.LoadEntitiesFile(entitiesFile)
	}
	return config.GenerateRandomEntities(randomN, maxLiability, defaultRandSource()), nil
}

func runBuildTreeConfigFile(c *cli.Context) error {
	setVerbosity(c)

	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("build-tree config-file requires a path argument")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	masterSecretStr, err := cfg.ResolveMasterSecret()
	if err != nil {
		return err
	}
	masterSecret, err := dapol.NewSecret([]byte(masterSecretStr))
	if err != nil {
		return err
	}
	saltB, err := secretOrDefault(cfg.SaltB, masterSecret)
	if err != nil {
		return err
	}
	saltS, err := secretOrDefault(cfg.SaltS, masterSecret)
	if err != nil {
		return err
	}

	height, err := dapol.NewHeight(cfg.Height)
	if err != nil {
		return err
	}

	var entities []dapol.Entity
	if cfg.Entities.FilePath != "" {
		entities, err = config.LoadEntitiesFile(cfg.Resolve(cfg.Entities.FilePath))
	} else {
		entities = config.GenerateRandomEntities(cfg.Entities.NumRandomEntities, cfg.MaxLiability, defaultRandSource())
	}
	if err != nil {
		return err
	}

	accType, err := cfg.AccumulatorTypeValue()
	if err != nil {
		return err
	}

	maxThreads := cfg.MaxThreadCount
	if maxThreads == 0 {
		maxThreads = dapol.DefaultMaxThreadCount
	}

	tree, err := dapol.NewTree(accType, masterSecret, saltB, saltS, cfg.MaxLiability, dapol.DefaultUpperBoundBitLength, height, height.DefaultStoreDepth(), maxThreads, entities, nil)
	if err != nil {
		return err
	}

	slog.Info("tree built from config", "entities", len(entities), "root_hash", fmt.Sprintf("%x", tree.RootHash().Bytes()))
	return nil
}

func runBuildTreeDeserialize(c *cli.Context) error {
	setVerbosity(c)

	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("build-tree deserialize requires a path argument")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading tree file: %w", err)
	}
	tree, err := dapol.UnmarshalTreeBinary(data)
	if err != nil {
		return err
	}

	slog.Info("tree deserialized", "root_hash", fmt.Sprintf("%x", tree.RootHash().Bytes()))
	return nil
}

func genProofsCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen-proofs",
		Usage: "generate inclusion proofs for a set of entity IDs",
		Flags: []cli.Flag{
			verbosityFlag,
			&cli.StringFlag{Name: "entity-ids", Required: true},
			&cli.StringFlag{Name: "tree-file", Required: true},
			&cli.IntFlag{Name: "range-proof-aggregation", Value: 100},
			&cli.StringFlag{Name: "file-type", Value: "binary"},
		},
		Action: runGenProofs,
	}
}

func runGenProofs(c *cli.Context) error {
	setVerbosity(c)

	data, err := os.ReadFile(c.String("tree-file"))
	if err != nil {
		return fmt.Errorf("reading tree file: %w", err)
	}
	tree, err := dapol.UnmarshalTreeBinary(data)
	if err != nil {
		return err
	}

	ids, err := config.LoadEntityIDs(c.String("entity-ids"))
	if err != nil {
		return err
	}

	aggregationFactor := dapol.Percent(uint8(c.Int("range-proof-aggregation")))
	fileType := c.String("file-type")

	for _, id := range ids {
		proof, err := tree.GenerateInclusionProofWith(id, aggregationFactor)
		if err != nil {
			return fmt.Errorf("generating proof for %q: %w", id, err)
		}

		var encoded []byte
		ext := "dapolproof"
		switch fileType {
		case "binary":
			encoded, err = proof.MarshalBinary()
		case "json":
			encoded, err = proof.MarshalJSON()
			ext = "json"
		default:
			return fmt.Errorf("%w: %q", dapol.ErrUnsupportedFileExtension, fileType)
		}
		if err != nil {
			return err
		}

		if err := os.WriteFile(fmt.Sprintf("%s.%s", id, ext), encoded, 0o600); err != nil {
			return fmt.Errorf("writing proof for %q: %w", id, err)
		}
	}

	return nil
}

func verifyInclusionProofCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify-inclusion-proof",
		Usage: "verify a serialized inclusion proof against a root hash",
		Flags: []cli.Flag{
			verbosityFlag,
			&cli.StringFlag{Name: "file-path", Required: true},
			&cli.StringFlag{Name: "root-hash", Required: true},
			&cli.BoolFlag{Name: "show-path"},
		},
		Action: runVerifyInclusionProof,
	}
}

func runVerifyInclusionProof(c *cli.Context) error {
	setVerbosity(c)

	data, err := os.ReadFile(c.String("file-path"))
	if err != nil {
		return fmt.Errorf("reading proof file: %w", err)
	}

	var proof *dapol.InclusionProof
	if hasJSONExtension(c.String("file-path")) {
		proof, err = dapol.UnmarshalInclusionProofJSON(data)
	} else {
		proof, err = dapol.UnmarshalInclusionProofBinary(data)
	}
	if err != nil {
		return err
	}

	rootHash, err := parseHexHash(c.String("root-hash"))
	if err != nil {
		return err
	}

	height, err := dapol.NewHeight(uint8(len(proof.Siblings) + 1))
	if err != nil {
		return err
	}

	if err := proof.Verify(height, rootHash); err != nil {
		return err
	}

	if c.Bool("show-path") {
		slog.Info("proof path", "leaf_x", proof.LeafX, "siblings", len(proof.Siblings))
	}

	fmt.Println("inclusion proof valid")
	return nil
}

func verifyRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify-root",
		Usage: "verify that a pair of root-data files open the same commitment",
		Flags: []cli.Flag{
			verbosityFlag,
			&cli.StringFlag{Name: "root-pub", Required: true},
			&cli.StringFlag{Name: "root-pvt", Required: true},
		},
		Action: runVerifyRoot,
	}
}

func runVerifyRoot(c *cli.Context) error {
	setVerbosity(c)

	pub, err := readPublicRootData(c.String("root-pub"))
	if err != nil {
		return err
	}
	sec, err := readSecretRootData(c.String("root-pvt"))
	if err != nil {
		return err
	}

	commitment, err := decodeCommitment([]byte(pub.Commitment))
	if err != nil {
		return err
	}
	blinding, err := decodeScalar([]byte(sec.BlindingFactor))
	if err != nil {
		return err
	}

	if !dapol.VerifyRootCommitment(commitment, sec.Liability, blinding) {
		return fmt.Errorf("root commitment does not match its opening")
	}

	fmt.Println("root commitment verified")
	return nil
}
