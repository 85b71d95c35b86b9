package main

import (
	"fmt"
	"io"

	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkappconfig"
)

type LayerArnCmd struct {
	Region  string `required:"" help:"AWS region of the function."`
	Arch    string `default:"arm64" enum:"arm64,x86_64" help:"Function architecture."`
	Version int    `default:"0" help:"Layer version; 0 selects the default."`
	List    bool   `help:"List the regions a layer is published in instead."`
}

func (c *LayerArnCmd) Run(out io.Writer) error {
	if c.List {
		for _, r := range bwcdkappconfig.LayerRegions() {
			fmt.Fprintln(out, r)
		}
		return nil
	}

	arn, err := bwcdkappconfig.LambdaLayerArn(c.Region, bwcdkappconfig.LayerArchitecture(c.Arch), c.Version)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, arn)
	return nil
}
