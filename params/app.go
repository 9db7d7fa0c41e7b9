package params

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// DefaultDatadirRoot is the default root for persistent state, eg. the result store.
var DefaultDatadirRoot = func() string {
	dir, err := homedir.Expand("~/.trajd")
	if err != nil {
		return ".trajd"
	}
	return dir
}()

// DefaultConfigFile is read by the CLI when no --config flag is given, if it exists.
var DefaultConfigFile = filepath.Join(DefaultDatadirRoot, "config.yaml")

// EnvPrefix prefixes environment variables that override config keys,
// eg. TRAJD_VERBOSITY, TRAJD_MAX_VELOCITY.
const EnvPrefix = "TRAJD"

// ResultsDBName is the bbolt file holding memoized reconstructions, relative to the datadir.
const ResultsDBName = "results.db"

// ResultsBucket is the bbolt bucket holding memoized reconstructions.
var ResultsBucket = []byte("results")

// DefaultMemoSize is the number of reconstructions held in memory.
var DefaultMemoSize = 256

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	out, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return out
}
