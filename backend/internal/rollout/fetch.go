package rollout

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/appconfigdata"
	"github.com/cockroachdb/errors"
)

// AppConfigDataAPI is the subset of the AppConfig data client the fetcher uses.
type AppConfigDataAPI interface {
	StartConfigurationSession(ctx context.Context, in *appconfigdata.StartConfigurationSessionInput,
		opts ...func(*appconfigdata.Options)) (*appconfigdata.StartConfigurationSessionOutput, error)
	GetLatestConfiguration(ctx context.Context, in *appconfigdata.GetLatestConfigurationInput,
		opts ...func(*appconfigdata.Options)) (*appconfigdata.GetLatestConfigurationOutput, error)
}

// Configuration is a configuration as served to clients.
type Configuration struct {
	Content     []byte
	ContentType string
}

// Fetcher retrieves the configuration an environment currently serves.
type Fetcher struct {
	data AppConfigDataAPI
}

// NewFetcher creates a Fetcher.
func NewFetcher(data AppConfigDataAPI) *Fetcher {
	return &Fetcher{data: data}
}

// Latest opens a session for the event's profile and environment and returns
// the configuration it serves.
func (f *Fetcher) Latest(ctx context.Context, ev Event) (Configuration, error) {
	sess, err := f.data.StartConfigurationSession(ctx, &appconfigdata.StartConfigurationSessionInput{
		ApplicationIdentifier:          aws.String(ev.Application.ID),
		EnvironmentIdentifier:          aws.String(ev.Environment.ID),
		ConfigurationProfileIdentifier: aws.String(ev.ConfigurationProfile.ID),
	})
	if err != nil {
		return Configuration{}, errors.Wrap(err, "failed to start configuration session")
	}

	out, err := f.data.GetLatestConfiguration(ctx, &appconfigdata.GetLatestConfigurationInput{
		ConfigurationToken: sess.InitialConfigurationToken,
	})
	if err != nil {
		return Configuration{}, errors.Wrap(err, "failed to get latest configuration")
	}
	return Configuration{
		Content:     out.Configuration,
		ContentType: aws.ToString(out.ContentType),
	}, nil
}
