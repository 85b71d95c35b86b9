package bwcdkappconfig

import (
	"fmt"
	"slices"

	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
	"github.com/cockroachdb/errors"
)

// LayerArchitecture is the instruction set of the AppConfig Lambda extension layer.
type LayerArchitecture string

const (
	LayerX86_64 LayerArchitecture = "x86_64"
	LayerArm64  LayerArchitecture = "arm64"
)

// DefaultLayerVersion is the AppConfig Lambda extension layer version used when none
// is configured.
const DefaultLayerVersion = 207

// ErrLayerUnavailable is returned when no layer is published for a region and
// architecture.
var ErrLayerUnavailable = errors.New("AppConfig Lambda extension layer unavailable")

// layerPublishers maps regions to the account that publishes the layer there.
var layerPublishers = map[string]string{
	"us-east-1":      "027255383542",
	"us-east-2":      "728743619870",
	"us-west-1":      "958113053741",
	"us-west-2":      "359756378197",
	"ca-central-1":   "039592058896",
	"eu-central-1":   "066940009817",
	"eu-central-2":   "758369105281",
	"eu-west-1":      "434848589818",
	"eu-west-2":      "282860088358",
	"eu-west-3":      "493207061005",
	"eu-north-1":     "646970417810",
	"eu-south-1":     "203683718741",
	"eu-south-2":     "586093569114",
	"ap-east-1":      "630222743974",
	"ap-northeast-1": "980059726660",
	"ap-northeast-2": "826293736237",
	"ap-northeast-3": "706869817123",
	"ap-southeast-1": "421114256042",
	"ap-southeast-2": "080788657173",
	"ap-southeast-3": "418787028745",
	"ap-south-1":     "554480029851",
	"ap-south-2":     "489524808438",
	"sa-east-1":      "000010852771",
	"af-south-1":     "574348263942",
	"me-south-1":     "559955524753",
	"me-central-1":   "662846165436",
	"il-central-1":   "895787185223",
	"us-gov-east-1":  "946561847325",
	"us-gov-west-1":  "946746059096",
	"cn-north-1":     "615057806174",
	"cn-northwest-1": "615084187847",
}

// noArm64 lists regions without an arm64 build of the layer.
var noArm64 = []string{
	"ca-central-1",
	"eu-central-2",
	"eu-south-2",
	"ap-south-2",
	"ap-southeast-3",
	"me-central-1",
	"il-central-1",
	"us-gov-east-1",
	"us-gov-west-1",
	"cn-north-1",
	"cn-northwest-1",
}

// LambdaLayerArn returns the ARN of the AWS AppConfig Lambda extension layer.
// A version of 0 selects DefaultLayerVersion.
func LambdaLayerArn(region string, arch LayerArchitecture, version int) (string, error) {
	publisher, ok := layerPublishers[region]
	if !ok {
		return "", errors.Wrapf(ErrLayerUnavailable, "region %q", region)
	}
	if version == 0 {
		version = DefaultLayerVersion
	}
	if version < 0 {
		return "", errors.Newf("layer version must be positive, got %d", version)
	}

	name := "AWS-AppConfig-Extension"
	switch arch {
	case LayerX86_64, "":
	case LayerArm64:
		if slices.Contains(noArm64, region) {
			return "", errors.Wrapf(ErrLayerUnavailable, "arm64 in region %q", region)
		}
		name += "-Arm64"
	default:
		return "", errors.Newf("unknown layer architecture %q", arch)
	}

	return fmt.Sprintf("arn:%s:lambda:%s:%s:layer:%s:%d",
		bwcdkutil.Partition(region), region, publisher, name, version), nil
}

// LayerRegions returns every region the layer is published in, sorted.
func LayerRegions() []string {
	regions := make([]string, 0, len(layerPublishers))
	for r := range layerPublishers {
		regions = append(regions, r)
	}
	slices.Sort(regions)
	return regions
}
