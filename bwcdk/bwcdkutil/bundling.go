package bwcdkutil

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdklambdagoalpha/v2"
	"github.com/aws/jsii-runtime-go"
)

// ReproducibleGoBundling returns BundlingOptions for byte-identical builds of the same
// source, so unchanged functions are never redeployed. The binary is always built with
// the "lambda.norpc" tag since functions run on the provided.al2023 runtime; extra build
// tags are appended.
func ReproducibleGoBundling(tags ...string) *awscdklambdagoalpha.BundlingOptions {
	allTags := append([]string{"lambda.norpc"}, tags...)

	return &awscdklambdagoalpha.BundlingOptions{
		GoBuildFlags: jsii.Strings(
			"-trimpath",
			"-ldflags=-buildid=",
			"-buildvcs=false",
			"-tags="+strings.Join(allTags, ","),
		),
		Environment: &map[string]*string{
			"CGO_ENABLED": jsii.String("0"),
		},
	}
}
