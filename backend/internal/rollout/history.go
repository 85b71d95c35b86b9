package rollout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
)

// DynamoAPI is the subset of the DynamoDB client the history store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

const inFlightSortKey = "INFLIGHT"

// History stores one item per deployment stage and one in-flight marker per
// environment.
//
//	pk   ENV#{application}#{environment}
//	sk   DEP#{number}#{stage} | INFLIGHT
//	gsi1 APP#{application} / {recorded at}
type History struct {
	db        DynamoAPI
	table     string
	retention time.Duration
}

// NewHistory creates a History on table. Items expire after retention; zero keeps them.
func NewHistory(db DynamoAPI, table string, retention time.Duration) *History {
	return &History{db: db, table: table, retention: retention}
}

func environmentKey(ev Event) string {
	return fmt.Sprintf("ENV#%s#%s", ev.Application.ID, ev.Environment.ID)
}

func stageKey(ev Event) string {
	return deploymentStageKey(ev.DeploymentNumber, ev.Stage)
}

func deploymentStageKey(n int, stage Stage) string {
	return fmt.Sprintf("DEP#%010d#%s", n, stage)
}

func str(s string) types.AttributeValue { return &types.AttributeValueMemberS{Value: s} }

func num(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

// Record writes the history item for the event's stage. Redelivered events
// overwrite the same item.
func (h *History) Record(ctx context.Context, ev Event, at time.Time) error {
	item := map[string]types.AttributeValue{
		"pk":                   str(environmentKey(ev)),
		"sk":                   str(stageKey(ev)),
		"gsi1pk":               str("APP#" + ev.Application.ID),
		"gsi1sk":               str(at.UTC().Format(time.RFC3339Nano)),
		"stage":                str(string(ev.Stage)),
		"deploymentNumber":     num(int64(ev.DeploymentNumber)),
		"environmentId":        str(ev.Environment.ID),
		"recordedAt":           str(at.UTC().Format(time.RFC3339Nano)),
		"invocationId":         str(ev.InvocationID),
		"configurationProfile": str(ev.ConfigurationProfile.ID),
	}
	if ev.ConfigurationVersion != "" {
		item["configurationVersion"] = str(ev.ConfigurationVersion)
	}
	if ev.Description != "" {
		item["description"] = str(ev.Description)
	}
	if h.retention > 0 {
		item["ttl"] = num(at.Add(h.retention).Unix())
	}

	if _, err := h.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(h.table),
		Item:      item,
	}); err != nil {
		return errors.Wrapf(err, "failed to record %s for deployment %d", ev.Stage, ev.DeploymentNumber)
	}
	return nil
}

// Terminated reports whether a completion or rollback has been recorded for
// the event's deployment.
func (h *History) Terminated(ctx context.Context, ev Event) (bool, error) {
	for _, stage := range []Stage{StageComplete, StageRolledBack} {
		out, err := h.db.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(h.table),
			Key: map[string]types.AttributeValue{
				"pk": str(environmentKey(ev)),
				"sk": str(deploymentStageKey(ev.DeploymentNumber, stage)),
			},
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return false, errors.Wrapf(err, "failed to read %s of deployment %d", stage, ev.DeploymentNumber)
		}
		if out.Item != nil {
			return true, nil
		}
	}
	return false, nil
}

// Acquire marks the event's deployment as in flight for its environment. When
// another deployment already holds the marker, its number is returned and the
// marker is left untouched. Re-acquiring for the same deployment succeeds.
// The marker expires with the history items so a lost completion event does
// not hold it forever.
func (h *History) Acquire(ctx context.Context, ev Event, at time.Time) (held int, err error) {
	item := map[string]types.AttributeValue{
		"pk":               str(environmentKey(ev)),
		"sk":               str(inFlightSortKey),
		"deploymentNumber": num(int64(ev.DeploymentNumber)),
		"startedAt":        str(at.UTC().Format(time.RFC3339Nano)),
	}
	if h.retention > 0 {
		item["ttl"] = num(at.Add(h.retention).Unix())
	}
	_, err = h.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(h.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk) OR deploymentNumber = :n"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": num(int64(ev.DeploymentNumber)),
		},
	})
	if err == nil {
		return 0, nil
	}

	var ccf *types.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return 0, errors.Wrap(err, "failed to mark deployment in flight")
	}

	held, err = h.InFlight(ctx, ev)
	if err != nil {
		return 0, err
	}
	return held, nil
}

// InFlight returns the number of the deployment holding the environment's
// marker, or zero when none does.
func (h *History) InFlight(ctx context.Context, ev Event) (int, error) {
	out, err := h.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(h.table),
		Key: map[string]types.AttributeValue{
			"pk": str(environmentKey(ev)),
			"sk": str(inFlightSortKey),
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to read in-flight marker")
	}
	n, ok := out.Item["deploymentNumber"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed deployment number %q", n.Value)
	}
	return v, nil
}

// Release clears the marker if it still belongs to the event's deployment.
// It reports whether the marker was removed.
func (h *History) Release(ctx context.Context, ev Event) (bool, error) {
	_, err := h.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(h.table),
		Key: map[string]types.AttributeValue{
			"pk": str(environmentKey(ev)),
			"sk": str(inFlightSortKey),
		},
		ConditionExpression: aws.String("deploymentNumber = :n"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": num(int64(ev.DeploymentNumber)),
		},
	})
	if err == nil {
		return true, nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return false, nil
	}
	return false, errors.Wrap(err, "failed to clear in-flight marker")
}
