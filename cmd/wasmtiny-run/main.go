// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command wasmtiny-run loads a binary module, instantiates it, and invokes
// either every nullary export or one named export, printing each result.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/wasmtiny/wasmtiny/exec"
	"github.com/wasmtiny/wasmtiny/wasm"
)

func main() {
	log.SetPrefix("wasmtiny-run: ")
	log.SetFlags(0)

	app := &cli.App{
		Name:      "wasmtiny-run",
		Usage:     "run the nullary exports of a WebAssembly MVP module",
		ArgsUsage: "file.wasm",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable decode/execution trace logging"},
			&cli.StringFlag{Name: "export", Aliases: []string{"e"}, Usage: "run only the export with this name"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("missing file.wasm argument", 1)
			}
			wasm.SetDebugMode(c.Bool("verbose"))
			exec.SetDebugMode(c.Bool("verbose"))
			return run(os.Stdout, c.Args().First(), c.String("export"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(w io.Writer, fname string, only string) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	module, err := wasm.DecodeModule(f)
	if err != nil {
		return fmt.Errorf("could not decode module: %w", err)
	}

	inst, err := exec.NewInstance(module, nil)
	if err != nil {
		return fmt.Errorf("could not instantiate module: %w", err)
	}

	for _, export := range inst.Exports() {
		if export.Kind != wasm.ExternalFunction {
			continue
		}
		if only != "" && export.Name != only {
			continue
		}
		callExport(w, export)
	}
	return nil
}

func callExport(w io.Writer, export exec.Export) {
	sig := export.Func.Sig
	if len(sig.ParamTypes) > 0 {
		fmt.Fprintf(w, "%s(...) => running exports with parameters is not supported\n", export.Name)
		return
	}

	results, err := export.Func.Call(nil)
	if err != nil {
		fmt.Fprintf(w, "%s() => error: %v\n", export.Name, err)
		return
	}
	switch len(results) {
	case 0:
		fmt.Fprintf(w, "%s()\n", export.Name)
	case 1:
		fmt.Fprintf(w, "%s() => %v\n", export.Name, results[0])
	default:
		fmt.Fprintf(w, "%s() => %v\n", export.Name, results)
	}
}
