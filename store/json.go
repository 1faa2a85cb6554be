package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/oi-archive/boj-collector/plugin/baekjoon"
)

// SubmissionFile keeps submissions in a JSON array, newest first.
type SubmissionFile struct {
	Path string
}

func (f SubmissionFile) ReadSubmissions() ([]baekjoon.Submission, error) {
	subs := make([]baekjoon.Submission, 0)
	if err := readJSON(f.Path, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (f SubmissionFile) WriteSubmissions(subs []baekjoon.Submission) error {
	if subs == nil {
		subs = []baekjoon.Submission{}
	}
	b, err := marshal(subs, "")
	if err != nil {
		return err
	}
	return writeFile(f.Path, b)
}

// ProblemFile keeps problems in a JSON object keyed by problem id, in
// ascending id order.
type ProblemFile struct {
	Path string
}

func (f ProblemFile) ReadKnownProblems() (map[int]baekjoon.Problem, error) {
	problems := make(map[int]baekjoon.Problem)
	if err := readJSON(f.Path, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func (f ProblemFile) WriteKnownProblems(problems map[int]baekjoon.Problem) error {
	ids := make([]int, 0, len(problems))
	for id := range problems {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b bytes.Buffer
	b.WriteString("{")
	for i, id := range ids {
		if i > 0 {
			b.WriteString(",")
		}
		v, err := marshal(problems[id], "\t")
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "\n\t%q: ", strconv.Itoa(id))
		b.Write(v)
	}
	if len(ids) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return writeFile(f.Path, b.Bytes())
}

// RosterFile is the competitions list maintained by hand.
type RosterFile struct {
	Path string
}

func (f RosterFile) ReadCompetitions() ([]baekjoon.Competition, error) {
	roster := make([]baekjoon.Competition, 0)
	if err := readJSON(f.Path, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// readJSON leaves v untouched when path does not exist.
func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// marshal indents with tabs and keeps non-ASCII and html characters as is.
func marshal(v interface{}, prefix string) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, "\t")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}

// writeFile replaces path through a temporary file so a failed write never
// leaves a truncated store behind.
func writeFile(path string, b []byte) error {
	if len(b) == 0 || b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
