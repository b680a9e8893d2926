package create

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Hash replaces each value by the hex digest of its text. Several inputs
// into one output hash the space-joined row.
type Hash struct {
	project.Columns `mapstructure:",squash"`
	Method          string `mapstructure:"method" validate:"oneof=md5 sha1 sha256 xxh3"`
}

func (t *Hash) SetDefaults() { t.Method = "md5" }

func (t *Hash) Name() string { return "create.hash" }

func (t *Hash) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	sum := digest(t.Method)
	return f, project.Apply(f, t.Spec(project.DefaultSeparator), func(vals []string) ([]any, error) {
		out := make([]any, len(vals))
		for i, v := range vals {
			out[i] = sum(v)
		}
		return out, nil
	})
}

func digest(method string) func(string) string {
	var newHash func() hash.Hash
	switch method {
	case "xxh3":
		return func(s string) string {
			return strconv.FormatUint(xxh3.HashString(s), 16)
		}
	case "sha1":
		newHash = sha1.New
	case "sha256":
		newHash = sha256.New
	default:
		newHash = md5.New
	}
	return func(s string) string {
		h := newHash()
		h.Write([]byte(s))
		return hex.EncodeToString(h.Sum(nil))
	}
}
