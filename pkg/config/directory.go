// Package config manages the resolver's on-disk configuration
// directory - the secret key, the static follow-lists, and the published
// record files - plus the optional daemon config overlay.
package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pknames/pknames-go/pkg/identity"
	"github.com/pknames/pknames-go/pkg/records"
	"github.com/pknames/pknames-go/pkg/werrors"
)

const (
	secretFileName      = "secret"
	staticListsDirName  = "static_lists"
	recordsDirName      = "records"
	dhtStoreDirName     = "dht"
	listFileExtension   = ".json"
	recordFileExtension = ".txt"
)

// Directory is the resolver's `~/.pknames` (or operator-chosen) config
// directory.
type Directory struct {
	Path string
}

// New builds a Directory at path, expanding a leading "~" to the user's
// home directory.
func New(path string) (Directory, error) {
	expanded, err := expandTilde(path)
	if err != nil {
		return Directory{}, werrors.New(werrors.Configuration, "expand path", err)
	}
	return Directory{Path: expanded}, nil
}

func expandTilde(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

func (d Directory) StaticListsPath() string { return filepath.Join(d.Path, staticListsDirName) }
func (d Directory) RecordsPath() string     { return filepath.Join(d.Path, recordsDirName) }
func (d Directory) SecretPath() string      { return filepath.Join(d.Path, secretFileName) }

// DHTStorePath is the directory the in-process DHT's durable packet store
// (pkg/dht.OpenStore) persists to, so a published packet survives across
// separate `pknames publish` and `pknames serve` invocations on the same
// machine.
func (d Directory) DHTStorePath() string { return filepath.Join(d.Path, dhtStoreDirName) }

// CreateIfNotExist creates the directory tree on first run and, if no
// secret exists yet, generates one and writes an empty "me" list for the
// resulting public key.
func (d Directory) CreateIfNotExist() (identity.PublicKey, error) {
	for _, p := range []string{d.Path, d.StaticListsPath(), d.RecordsPath(), d.DHTStorePath()} {
		if err := os.MkdirAll(p, 0o700); err != nil {
			return identity.PublicKey{}, werrors.New(werrors.Configuration, "create "+p, err)
		}
	}

	pub, _, err := d.ensureSecret()
	if err != nil {
		return identity.PublicKey{}, err
	}

	mePath := d.listPath(pub)
	if _, err := os.Stat(mePath); os.IsNotExist(err) {
		me := identity.NewFollowList(pub, "me", nil)
		if err := d.WriteList(me); err != nil {
			return identity.PublicKey{}, err
		}
	}

	return pub, nil
}

// ensureSecret reads the existing secret, or generates and persists a new
// ed25519 seed with crypto/rand if none exists yet.
func (d Directory) ensureSecret() (identity.PublicKey, ed25519.PrivateKey, error) {
	if _, err := os.Stat(d.SecretPath()); err == nil {
		return d.ReadSecret()
	} else if !os.IsNotExist(err) {
		return identity.PublicKey{}, nil, werrors.New(werrors.Configuration, "stat secret", err)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return identity.PublicKey{}, nil, werrors.New(werrors.Internal, "generate keypair", err)
	}
	seed := priv.Seed()
	pk, err := identity.NewPublicKey(pub)
	if err != nil {
		return identity.PublicKey{}, nil, werrors.New(werrors.Internal, "derive pubkey", err)
	}
	if err := d.writeSecret(seed); err != nil {
		return identity.PublicKey{}, nil, err
	}
	return pk, priv, nil
}

func (d Directory) writeSecret(seed []byte) error {
	z32 := identity.Z32Encode(seed)
	if err := os.WriteFile(d.SecretPath(), []byte(z32), 0o600); err != nil {
		return werrors.New(werrors.Configuration, "write secret", err)
	}
	return nil
}

// ReadSecret reads the z-base-32 encoded ed25519 seed and derives the
// full keypair from it.
func (d Directory) ReadSecret() (identity.PublicKey, ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(d.SecretPath())
	if err != nil {
		return identity.PublicKey{}, nil, werrors.New(werrors.Configuration, "read secret", err)
	}
	seed, err := identity.Z32Decode(strings.TrimSpace(string(raw)))
	if err != nil {
		return identity.PublicKey{}, nil, werrors.New(werrors.Configuration, "decode secret", err)
	}
	if len(seed) != ed25519.SeedSize {
		return identity.PublicKey{}, nil, werrors.Newf(werrors.Configuration, "secret has %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub, err := identity.NewPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return identity.PublicKey{}, nil, werrors.New(werrors.Internal, "derive pubkey", err)
	}
	return pub, priv, nil
}

func (d Directory) listPath(pubkey identity.PublicKey) string {
	return filepath.Join(d.StaticListsPath(), pubkey.Z32()+listFileExtension)
}

// WriteList persists a follow-list to its canonical path.
func (d Directory) WriteList(list identity.FollowList) error {
	data, err := list.ToJSON()
	if err != nil {
		return werrors.New(werrors.Internal, "serialize list", err)
	}
	if err := os.WriteFile(d.listPath(list.Owner), data, 0o600); err != nil {
		return werrors.New(werrors.Configuration, "write list", err)
	}
	return nil
}

// ReadList reads a single follow-list by owner key.
func (d Directory) ReadList(pubkey identity.PublicKey) (identity.FollowList, error) {
	data, err := os.ReadFile(d.listPath(pubkey))
	if err != nil {
		return identity.FollowList{}, werrors.New(werrors.Configuration, "read list", err)
	}
	list, err := identity.ParseFollowListJSON(data)
	if err != nil {
		return identity.FollowList{}, werrors.New(werrors.Configuration, "parse list", err)
	}
	return list, nil
}

// ReadValidLists reads every *.json file in static_lists/, skipping and
// logging any that fail to parse rather than aborting the whole read: a
// malformed individual list is isolated and the rest of the web of trust
// keeps working.
func (d Directory) ReadValidLists(logger *slog.Logger) ([]identity.FollowList, error) {
	entries, err := os.ReadDir(d.StaticListsPath())
	if err != nil {
		return nil, werrors.New(werrors.Configuration, "read static_lists", err)
	}

	var out []identity.FollowList
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != listFileExtension {
			continue
		}
		path := filepath.Join(d.StaticListsPath(), entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable follow list", "path", path, "error", err)
			continue
		}
		list, err := identity.ParseFollowListJSON(data)
		if err != nil {
			logger.Warn("skipping malformed follow list", "path", path, "error", err)
			continue
		}
		out = append(out, list)
	}
	return out, nil
}

// ReadRecordFiles reads and parses every *.txt file in records/, keyed by
// the public key its filename names.
func (d Directory) ReadRecordFiles() (map[identity.PublicKey][]records.Record, error) {
	entries, err := os.ReadDir(d.RecordsPath())
	if err != nil {
		return nil, werrors.New(werrors.Configuration, "read records", err)
	}

	out := make(map[identity.PublicKey][]records.Record)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != recordFileExtension {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), recordFileExtension)
		pubkey, err := identity.ParsePublicKey(stem)
		if err != nil {
			continue
		}
		path := filepath.Join(d.RecordsPath(), entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, werrors.New(werrors.Configuration, "read "+path, err)
		}
		parsed, err := records.ParseString(string(data))
		if err != nil {
			return nil, werrors.New(werrors.Configuration, "parse "+path, err)
		}
		out[pubkey] = parsed
	}
	return out, nil
}
