package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/basewarphq/bwappcfg/appcfgcontent"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type ContentTypeCmd struct {
	File string `arg:"" type:"existingfile" help:"Configuration file."`
}

func (c *ContentTypeCmd) Run(out io.Writer) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", c.File)
	}
	fmt.Fprintln(out, appcfgcontent.DetectContentType(c.File, data))
	return nil
}

type CheckCmd struct {
	File         string `arg:"" type:"existingfile" help:"Configuration file."`
	FeatureFlags bool   `name:"feature-flags" help:"Check the file as an AWS.AppConfig.FeatureFlags document."`
	ContentType  string `name:"content-type" help:"Content type to check against; detected when empty."`
	MaxBytes     int    `name:"max-bytes" default:"${max_bytes}" help:"Size limit for hosted content."`
}

func (c *CheckCmd) Run(out io.Writer, log *zap.Logger) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", c.File)
	}
	if c.MaxBytes > 0 && len(data) > c.MaxBytes {
		return errors.Newf("%s is %d bytes, above the %d byte limit", c.File, len(data), c.MaxBytes)
	}

	contentType := c.ContentType
	if contentType == "" {
		contentType = appcfgcontent.DetectContentType(c.File, data)
	}
	log.Debug("checking content", zap.String("file", c.File), zap.String("content_type", contentType))

	if c.FeatureFlags {
		if !appcfgcontent.IsJSON(contentType) {
			return errors.Newf("feature flags must be JSON, got %s", contentType)
		}
		flags, err := appcfgcontent.ParseFeatureFlags(data)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(flags.Flags))
		for k := range flags.Flags {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, n := range names {
			_, hasValue := flags.Values[n]
			fmt.Fprintf(out, "flag %s (value set: %t)\n", n, hasValue)
		}
	} else if err := appcfgcontent.Check(contentType, data); err != nil {
		return errors.Wrapf(err, "%s", c.File)
	}

	fmt.Fprintf(out, "ok: %s, %s, %d bytes\n", c.File, contentType, len(data))
	return nil
}
