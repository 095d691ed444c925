// Package main provides the demo driver of the store. It is an external
// caller of the library: it builds a store, runs operations against it and
// formats the results.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/strata-kv/strata"
	"github.com/strata-kv/strata/core/store/stacked"
	"github.com/strata-kv/strata/script"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

func main() {
	app := makeApp()

	err := app.Run(os.Args)
	if err != nil {
		strata.Logger.Fatal().Err(err).Msg("application failed")
	}
}

func makeApp() *cli.App {
	return &cli.App{
		Name:  "strata",
		Usage: "in-memory key/value store with nested transactions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics",
				Usage: "address to serve the prometheus metrics on",
			},
		},
		Before: func(c *cli.Context) error {
			addr := c.String("metrics")
			if addr != "" {
				serveMetrics(addr)
			}

			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "demo",
				Usage:  "run the reference scenario",
				Action: runDemo,
			},
			{
				Name:  "exec",
				Usage: "replay a script of operations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "script",
						Usage:    "path of the YAML script",
						Required: true,
					},
				},
				Action: runScript,
			},
		},
	}
}

// serveMetrics registers the collectors of the module and exposes them
// over http.
func serveMetrics(addr string) {
	for _, c := range strata.PromCollectors {
		err := prometheus.DefaultRegisterer.Register(c)
		if err != nil {
			strata.Logger.Warn().Err(err).Msg("failed to register collector")
		}
	}

	http.Handle("/metrics", promhttp.Handler())

	go func() {
		err := http.ListenAndServe(addr, nil)
		if err != nil {
			strata.Logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

func runScript(c *cli.Context) error {
	file, err := os.Open(c.String("script"))
	if err != nil {
		return xerrors.Errorf("failed to open script: %v", err)
	}

	defer file.Close()

	sess := stacked.NewStore().Session()

	err = script.Run(file, sess, c.App.Writer)
	if err != nil {
		return xerrors.Errorf("failed to run script: %v", err)
	}

	return nil
}

func runDemo(c *cli.Context) error {
	out := c.App.Writer

	fmt.Fprintln(out, "=== Single-threaded demo ===")

	store := stacked.NewStore()
	sess := store.Session()

	sess.Set([]byte("a"), []byte("10"))
	sess.Set([]byte("b"), []byte("20"))
	printValue(out, sess, "a")
	printValue(out, sess, "b")

	sess.Begin()
	sess.Set([]byte("a"), []byte("30"))
	sess.Delete([]byte("b"))
	sess.Set([]byte("c"), []byte("40"))
	printValue(out, sess, "a")
	printValue(out, sess, "b")
	printKeys(out, sess)

	sess.Rollback()
	fmt.Fprintln(out, "After rollback:")
	printValue(out, sess, "a")
	printValue(out, sess, "b")
	printKeys(out, sess)

	sess.Begin()
	sess.Delete([]byte("a"))
	sess.Commit()
	fmt.Fprintln(out, "After committed delete:")
	printValue(out, sess, "a")
	printKeys(out, sess)

	fmt.Fprintln(out, "=== Multi-threaded demo ===")

	store = stacked.NewStore()

	wg := sync.WaitGroup{}
	wg.Add(2)

	go func() {
		defer wg.Done()

		sess := store.Session()
		sess.Begin()
		sess.Set([]byte("x"), []byte("100"))
		sess.Set([]byte("y"), []byte("200"))
		sess.Commit()
	}()

	go func() {
		defer wg.Done()

		sess := store.Session()
		sess.Begin()
		sess.Set([]byte("y"), []byte("999"))
		sess.Set([]byte("z"), []byte("300"))
		sess.Commit()
	}()

	wg.Wait()

	sess = store.Session()
	printKeys(out, sess)
	printValue(out, sess, "x")
	printValue(out, sess, "y")
	printValue(out, sess, "z")

	return nil
}

func printValue(out io.Writer, sess *stacked.Session, key string) {
	value, err := sess.Get([]byte(key))
	if err != nil {
		fmt.Fprintf(out, "%s = !%v\n", key, err)
		return
	}

	if value == nil {
		fmt.Fprintf(out, "%s = <absent>\n", key)
		return
	}

	fmt.Fprintf(out, "%s = %s\n", key, value)
}

func printKeys(out io.Writer, sess *stacked.Session) {
	keys := make([]string, 0)
	for _, key := range sess.Keys() {
		keys = append(keys, string(key))
	}

	sort.Strings(keys)

	fmt.Fprintf(out, "keys = %v\n", keys)
}
