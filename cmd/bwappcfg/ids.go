package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkparams"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// IDsCmd prints the AppConfig identifiers a deployment published to SSM, in the
// form a rollout plan needs them.
type IDsCmd struct {
	Qualifier  string `required:"" help:"CDK qualifier of the project."`
	Deployment string `arg:"" help:"Deployment name (e.g., Beta, Prod)."`
	Region     string `help:"AWS region to read from."`
}

func (c *IDsCmd) Run(out io.Writer, log *zap.Logger) error {
	ctx := context.Background()

	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to load AWS config")
	}

	return c.run(ctx, out, log, ssm.NewFromConfig(cfg))
}

func (c *IDsCmd) path() string {
	return fmt.Sprintf("/%s/%s/%s", c.Qualifier, bwcdkparams.AppConfigNamespace, strings.ToLower(c.Deployment))
}

func (c *IDsCmd) run(ctx context.Context, out io.Writer, log *zap.Logger, api ssm.GetParametersByPathAPIClient) error {
	prefix := c.path()
	log.Debug("reading parameters", zap.String("path", prefix))

	ids := map[string]string{}
	pages := ssm.NewGetParametersByPathPaginator(api, &ssm.GetParametersByPathInput{
		Path:      aws.String(prefix),
		Recursive: aws.Bool(true),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return errors.Wrapf(err, "reading parameters under %s", prefix)
		}
		for _, p := range page.Parameters {
			name := strings.TrimPrefix(aws.ToString(p.Name), prefix+"/")
			ids[name] = aws.ToString(p.Value)
		}
	}
	if len(ids) == 0 {
		return errors.Newf("no identifiers published under %s", prefix)
	}

	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(out, "%s=%s\n", name, ids[name])
	}
	return nil
}
