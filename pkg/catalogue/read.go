package catalogue

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/score"
)

// Read parses an instance in the candidate text format:
//
//	n
//	id k
//	score size p1 ... psize     (k lines)
//	...                         (n variable blocks)
//
// Scores are log-likelihoods and are converted with score.FromLogLikelihood.
// Non-finite scores, and scores too large for n of them to sum within an
// int64, are rejected.
// Tokens may be separated by any whitespace, and variable blocks may appear
// in any order.
func Read(r io.Reader, opts ...Option) (*Catalogue, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tr := newTokenReader(r)
	n, err := tr.int("variable count")
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, tr.errorf("variable count must be positive, got %d", n)
	}

	b := NewBuilder(n)
	if o.allowMissing {
		b.AllowMissingFallback()
	}
	seen := make([]bool, n)
	for i := 0; i < n; i++ {
		id, err := tr.int("variable id")
		if err != nil {
			return nil, err
		}
		if id < 0 || id >= n {
			return nil, tr.errorf("variable id %d out of range [0,%d)", id, n)
		}
		if seen[id] {
			return nil, tr.errorf("variable %d declared twice", id)
		}
		seen[id] = true

		k, err := tr.int("candidate count")
		if err != nil {
			return nil, err
		}
		for j := 0; j < k; j++ {
			ll, err := tr.float("score")
			if err != nil {
				return nil, err
			}
			if !score.Convertible(ll, n) {
				return nil, tr.errorf("variable %d: score %g out of range", id, ll)
			}
			size, err := tr.int("parent set size")
			if err != nil {
				return nil, err
			}
			if size < 0 || size >= n {
				return nil, tr.errorf("variable %d: parent set size %d out of range", id, size)
			}
			parents := make([]int, size)
			for p := range parents {
				if parents[p], err = tr.int("parent id"); err != nil {
					return nil, err
				}
			}
			b.Add(id, score.FromLogLikelihood(ll), parents...)
		}
	}
	return b.Build()
}

// ReadFile reads an instance from path.
func ReadFile(path string, opts ...Option) (*Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "instance %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInstance, err, "open instance %s", path)
	}
	defer f.Close()

	c, err := Read(f, opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInstance, err, "read %s", filepath.Base(path))
	}
	return c, nil
}

// Option configures Read.
type Option func(*options)

type options struct {
	allowMissing bool
}

// WithMissingFallback accepts variables that lack an empty parent set.
func WithMissingFallback() Option {
	return func(o *options) { o.allowMissing = true }
}

// Experiment pairs an instance file with its known optimal score.
type Experiment struct {
	Instance string      // path to the instance file
	Optimum  score.Score // fixed-point optimum, score.Max when unknown
}

// ReadExperiment parses an experiment file holding "<instance> <optimum>".
// A relative instance path is resolved against the experiment file's
// directory. A missing optimum, or an optimum of 0, means unknown.
func ReadExperiment(path string) (Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Experiment{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "experiment %s", path)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return Experiment{}, errors.New(errors.ErrCodeInvalidInstance, "experiment %s is empty", path)
	}

	exp := Experiment{Instance: fields[0], Optimum: score.Max}
	if !filepath.IsAbs(exp.Instance) {
		exp.Instance = filepath.Join(filepath.Dir(path), exp.Instance)
	}
	if len(fields) > 1 {
		v, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Experiment{}, errors.Wrap(errors.ErrCodeInvalidInstance, err, "experiment %s: optimum", path)
		}
		if v != 0 {
			exp.Optimum = score.Score(v)
		}
	}
	return exp, nil
}

// tokenReader yields whitespace separated tokens and remembers the line
// they came from for error messages.
type tokenReader struct {
	sc     *bufio.Scanner
	fields []string
	line   int
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &tokenReader{sc: sc}
}

func (t *tokenReader) next(what string) (string, error) {
	for len(t.fields) == 0 {
		if !t.sc.Scan() {
			if err := t.sc.Err(); err != nil {
				return "", errors.Wrap(errors.ErrCodeInvalidInstance, err, "line %d", t.line)
			}
			return "", t.errorf("unexpected end of input, expected %s", what)
		}
		t.line++
		t.fields = strings.Fields(t.sc.Text())
	}
	tok := t.fields[0]
	t.fields = t.fields[1:]
	return tok, nil
}

func (t *tokenReader) int(what string) (int, error) {
	tok, err := t.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, t.errorf("expected %s, got %q", what, tok)
	}
	return v, nil
}

func (t *tokenReader) float(what string) (float64, error) {
	tok, err := t.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, t.errorf("expected %s, got %q", what, tok)
	}
	return v, nil
}

func (t *tokenReader) errorf(format string, args ...any) error {
	e := errors.New(errors.ErrCodeInvalidInstance, format, args...)
	e.Message = "line " + strconv.Itoa(t.line) + ": " + e.Message
	return e
}
