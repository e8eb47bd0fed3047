// NN-512 (https://NN-512.com)
//
// Copyright (C) 2019 [
//     37ef ced3 3727 60b4
//     3c29 f9c6 dc30 d518
//     f4f3 4106 6964 cab4
//     a06f c1a3 83fd 090e
// ]
//
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in
//    the documentation and/or other materials provided with the
//    distribution.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
// "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
// LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
// A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
// HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
// LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
// DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
// THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"nvmcc/internal/compile"
	"nvmcc/internal/config"
	"nvmcc/internal/dataset"
	"nvmcc/internal/doc"
	"nvmcc/internal/example"
	"nvmcc/internal/version"
)

const (
	newline = "\n"
	space   = " "
	indent  = space + space + space + space
	usage   = newline + "Usage:" + newline + newline + indent + "nvmcc" + space
)

const (
	imageFile  = "nvm.bin"
	headerFile = "data.h"
	sourceFile = "data.cpp"
	labelsFile = "labels.txt"
)

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func compileUsage(fs *flag.FlagSet) error {
	var opts strings.Builder
	fs.VisitAll(func(f *flag.Flag) {
		opts.WriteString(indent + "-" + f.Name + newline)
		opts.WriteString(indent + indent + f.Usage + newline)
	})
	return errors.New(usage +
		os.Args[1] + space + "CONFIG" + space + "DIR" + space + "[OPTIONS]" + newline +
		newline +
		"The CONFIG argument names a model configuration (see the" + newline +
		"config command). Its graph and dataset files are read" + newline +
		"relative to the current directory." + newline +
		newline +
		indent + "Example: mnist" + newline +
		indent + "Example: cifar10" + newline +
		newline +
		"The DIR argument specifies an output directory where " + imageFile + "," + newline +
		headerFile + ", " + sourceFile + ", and " + labelsFile + " will be written." + newline +
		"Nothing is written unless compilation succeeds." + newline +
		newline +
		indent + "Example: ." + newline +
		indent + "Example: build/mnist" + newline +
		newline +
		"The OPTIONS can be:" + newline +
		newline +
		opts.String())
}

func cmdCompile() error {
	fs := flag.NewFlagSet(os.Args[1], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var opts config.Options
	fs.BoolVar(&opts.WithoutProgressEmbedding, "without-progress-embedding", false,
		"Do not define WITH_PROGRESS_EMBEDDING in "+headerFile+".")
	fs.BoolVar(&opts.AllSamples, "all-samples", false,
		"Compile the whole test set and grow the NVM size to match.")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return compileUsage(fs)
	}
	args := fs.Args()
	if len(args) < 2 {
		return compileUsage(fs)
	}
	if err := fs.Parse(args[2:]); err != nil || fs.NArg() != 0 {
		return compileUsage(fs)
	}
	cfg, err := config.Lookup(args[0], opts)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	return build(cfg, args[1], log)
}

func build(cfg *config.Config, dir string, log *zap.Logger) error {
	text, err := os.ReadFile(cfg.GraphFile)
	if err != nil {
		return err
	}
	f, err := os.Open(cfg.DataFile)
	if err != nil {
		return err
	}
	samples, err := dataset.Load(cfg.Loader, f, cfg.Samples)
	_ = f.Close()
	if err != nil {
		return errors.Wrap(err, cfg.DataFile)
	}
	log.Info("dataset loaded",
		zap.String("file", cfg.DataFile),
		zap.Int("samples", len(samples)),
	)
	graphDir := filepath.Dir(cfg.GraphFile)
	result, err := compile.Compile(string(text), samples, cfg, compile.Options{
		Log: log,
		ReadFile: func(name string) ([]byte, error) {
			if !filepath.IsAbs(name) {
				name = filepath.Join(graphDir, name)
			}
			return os.ReadFile(name)
		},
	})
	if err != nil {
		return err
	}
	const perm os.FileMode = 0666
	for _, out := range [...]struct {
		name string
		data []byte
	}{
		{imageFile, result.Image.Bytes},
		{headerFile, result.H},
		{sourceFile, result.C},
		{labelsFile, result.Listing},
	} {
		if err := os.WriteFile(filepath.Join(dir, out.name), out.data, perm); err != nil {
			return err
		}
	}
	log.Info("written",
		zap.String("dir", dir),
		zap.Int("used", result.Image.Used),
		zap.Int("nvmSize", cfg.NVMSize),
	)
	return nil
}

func cmdConfig() error {
	if len(os.Args) > 2 {
		return errors.New(usage + os.Args[1] + newline)
	}
	var list string
	for _, name := range config.Names() {
		cfg, err := config.Lookup(name, config.Options{})
		if err != nil {
			return err
		}
		list += name + newline +
			indent + "graph " + cfg.GraphFile + newline +
			indent + "data " + cfg.DataFile + " (" + config.LoaderStrings[cfg.Loader] + ")" + newline +
			indent + "scale " + strconv.Itoa(cfg.Scale) + newline +
			indent + "slots " + strconv.Itoa(cfg.NumSlots) + " x " + strconv.Itoa(cfg.IntermediateValuesSize) + newline +
			indent + "nvm " + strconv.Itoa(cfg.NVMSize) + newline +
			indent + "samples " + strconv.Itoa(cfg.Samples) + " (all " + strconv.Itoa(cfg.AllSamples) + ")" + newline
	}
	_, err := os.Stdout.WriteString(list)
	return err
}

func cmdDoc() error {
	if len(os.Args) > 2 {
		return errors.New(usage + os.Args[1] + newline)
	}
	_, err := os.Stdout.Write(doc.Bytes())
	return err
}

func cmdExample() error {
	if len(os.Args) == 3 {
		if gen := example.Generate(os.Args[2]); gen != nil {
			_, err := os.Stdout.Write(gen)
			return err
		}
	}
	list := strings.Join(example.Names(), newline+indent)
	return errors.New(usage +
		os.Args[1] + space + "NAME" + newline +
		newline +
		"The NAME argument can be:" + newline +
		newline +
		indent + list + newline)
}

func cmdVersion() error {
	if len(os.Args) > 2 {
		return errors.New(usage + os.Args[1] + newline)
	}
	_, err := os.Stdout.WriteString(
		strconv.Itoa(version.Int) + newline,
	)
	return err
}

var cmds = [...]struct {
	name string
	hint string
	call func() error
}{
	{"compile", "Compile a configured model into an NVM image and C++ data files.", cmdCompile},
	{"config", "Write the model configurations to stdout.", cmdConfig},
	{"doc", "Write documentation for the graph language to stdout.", cmdDoc},
	{"example", "Write graph language for an example neural net to stdout.", cmdExample},
	{"version", "Write the version number of this program to stdout.", cmdVersion},
}

func run() error {
	if len(os.Args) >= 2 {
		arg := os.Args[1]
		for i := range &cmds {
			if cmds[i].name == arg {
				return cmds[i].call()
			}
		}
	}
	max := 0
	for i := range &cmds {
		if alt := len(cmds[i].name); max < alt {
			max = alt
		}
	}
	tot := max + len(indent)
	var list string
	for i := range &cmds {
		name, hint := cmds[i].name, cmds[i].hint
		align := strings.Repeat(space, tot-len(name))
		list += indent + name + align + hint + newline
	}
	return errors.New(usage +
		"COMMAND" + newline +
		newline +
		"The COMMAND argument can be:" + newline +
		newline +
		list)
}

func main() {
	if err := run(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + newline)
		os.Exit(1)
	}
	os.Exit(0)
}
