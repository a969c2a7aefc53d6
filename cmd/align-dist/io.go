// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"io"
	"os"

	"github.com/grailbio/align/encoding/fasta"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// readFasta loads all records from a FASTA file, decompressing when the path
// says to.
func readFasta(ctx context.Context, path string) (recs []fasta.Record, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	reader := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer func() {
			if e := gz.Close(); e != nil && err == nil {
				err = e
			}
		}()
		reader = gz
	}
	return fasta.Read(reader)
}

// output is a write destination that may span a compressor and a file, both
// of which must be closed in order.
type output struct {
	io.Writer
	gz *gzip.Writer
	f  file.File
}

func (o *output) Close(ctx context.Context) error {
	var err error
	if o.gz != nil {
		err = o.gz.Close()
	}
	if o.f != nil {
		if e := o.f.Close(ctx); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// createOutput opens the result destination.  "-" (or empty) means stdout,
// and a .gz suffix selects gzip compression.
func createOutput(ctx context.Context, path string) (*output, error) {
	if path == "" || path == "-" {
		return &output{Writer: os.Stdout}, nil
	}
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	o := &output{Writer: f.Writer(ctx), f: f}
	if fileio.DetermineType(path) == fileio.Gzip {
		o.gz = gzip.NewWriter(o.Writer)
		o.Writer = o.gz
	}
	return o, nil
}
