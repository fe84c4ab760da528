// Fixtures shared by the package tests.
package test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meow-io/go-bencode/config"
)

// Documents holds valid bencode documents, each exactly one top-level value. Some are deliberately not in canonical
// form (unsorted keys) since only key uniqueness is enforced.
var Documents = []string{
	"i0e",
	"i-42e",
	"i9223372036854775807e",
	"i-9223372036854775808e",
	"0:",
	"4:spam",
	"3:\x00\xff\x01",
	"le",
	"de",
	"li1ei11ei111ee",
	"l4:spami42ee",
	"l0:0:0:e",
	"lllleeee",
	"d3:bar4:spam3:fooi42ee",
	"d1:ad1:bd1:cleeee",
	"d1:bi1e1:ai2ee",
	"ld1:ai1eed1:ai2eee",
	"d8:announce19:http://tracker/ann4:infod6:lengthi12e4:name5:a.txt12:piece lengthi262144e6:pieces0:ee",
}

// Malformed holds documents that fail to parse.
var Malformed = []string{
	"",
	"x",
	"i03e",
	"i-0e",
	"ie",
	"i12",
	"04:spam",
	"5:spam",
	"l",
	"li1e",
	"d1:ae",
	"di1ei2ee",
	"d1:ai1e1:ai2ee",
}

// WriteFiles creates one file per entry under dir and returns their paths in the order given by names.
func WriteFiles(t *testing.T, dir string, names []string, contents map[string]string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(contents[name]), 0o600); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

// NewTestConfig returns a config logging into a temporary directory.
func NewTestConfig(t *testing.T, opts ...config.Option) *config.Config {
	t.Helper()
	opts = append([]config.Option{config.WithRootDir(t.TempDir()), config.WithDebug(true)}, opts...)
	return config.NewConfig(opts...)
}
