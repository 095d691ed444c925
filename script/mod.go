// Package script replays a scripted sequence of store operations, read
// from a YAML document, against a transactional scope.
//
// A script is a list of steps:
//
//	steps:
//	  - op: set
//	    key: a
//	    value: "10"
//	  - op: begin
//	  - op: delete
//	    key: a
//	  - op: rollback
//	  - op: get
//	    key: a
//	  - op: keys
//
// The get and keys steps write their result to the output, the other
// steps are silent.
package script

import (
	"fmt"
	"io"
	"io/ioutil"
	"sort"

	"github.com/strata-kv/strata/core/store"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

type step struct {
	Op    string  `yaml:"op"`
	Key   string  `yaml:"key"`
	Value *string `yaml:"value"`
}

type script struct {
	Steps []step `yaml:"steps"`
}

// Run decodes the script and executes its steps in order against the
// scope, writing the result of every query step to out. It stops at the
// first malformed step.
func Run(in io.Reader, sess store.Transactional, out io.Writer) error {
	data, err := ioutil.ReadAll(in)
	if err != nil {
		return xerrors.Errorf("failed to read script: %v", err)
	}

	sc := script{}

	err = yaml.Unmarshal(data, &sc)
	if err != nil {
		return xerrors.Errorf("failed to decode script: %v", err)
	}

	for i, step := range sc.Steps {
		err = execute(step, sess, out)
		if err != nil {
			return xerrors.Errorf("step %d: %v", i+1, err)
		}
	}

	return nil
}

func execute(s step, sess store.Transactional, out io.Writer) error {
	switch s.Op {
	case "set":
		if s.Key == "" {
			return xerrors.New("missing key")
		}
		if s.Value == nil {
			return xerrors.New("missing value")
		}

		return sess.Set([]byte(s.Key), []byte(*s.Value))

	case "get":
		if s.Key == "" {
			return xerrors.New("missing key")
		}

		value, err := sess.Get([]byte(s.Key))
		if err != nil {
			return xerrors.Errorf("failed to read key: %v", err)
		}

		if value == nil {
			fmt.Fprintf(out, "%s = <absent>\n", s.Key)
		} else {
			fmt.Fprintf(out, "%s = %s\n", s.Key, value)
		}

		return nil

	case "delete":
		if s.Key == "" {
			return xerrors.New("missing key")
		}

		return sess.Delete([]byte(s.Key))

	case "keys":
		keys := make([]string, 0)
		for _, key := range sess.Keys() {
			keys = append(keys, string(key))
		}

		// The store does not order its keys, but the output should be
		// stable.
		sort.Strings(keys)

		fmt.Fprintf(out, "keys = %v\n", keys)

		return nil

	case "begin":
		sess.Begin()
		return nil

	case "commit":
		sess.Commit()
		return nil

	case "rollback":
		sess.Rollback()
		return nil

	default:
		return xerrors.Errorf("unknown op %q", s.Op)
	}
}
