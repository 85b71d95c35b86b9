package rollout_test

import (
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/appconfigdata"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// fakeDynamo understands the two condition expressions the history store uses.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func itemKey(key map[string]types.AttributeValue) string {
	return key["pk"].(*types.AttributeValueMemberS).Value + "|" + key["sk"].(*types.AttributeValueMemberS).Value
}

func numberOf(item map[string]types.AttributeValue) string {
	if n, ok := item["deploymentNumber"].(*types.AttributeValueMemberN); ok {
		return n.Value
	}
	return ""
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := itemKey(in.Item)
	if in.ConditionExpression != nil {
		existing, ok := f.items[k]
		want := in.ExpressionAttributeValues[":n"].(*types.AttributeValueMemberN).Value
		if ok && numberOf(existing) != want {
			return nil, conditionFailed()
		}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := itemKey(in.Key)
	existing, ok := f.items[k]
	if in.ConditionExpression != nil {
		want := in.ExpressionAttributeValues[":n"].(*types.AttributeValueMemberN).Value
		if !ok || numberOf(existing) != want {
			return nil, conditionFailed()
		}
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) get(pk, sk string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[pk+"|"+sk]
}

type object struct {
	body        []byte
	contentType string
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]object
	err     error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string]object{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = object{body: body, contentType: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

type fakeSQS struct {
	mu   sync.Mutex
	sent []*sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

type fakeData struct {
	content     []byte
	contentType string
	sessions    []*appconfigdata.StartConfigurationSessionInput
}

func (f *fakeData) StartConfigurationSession(
	_ context.Context, in *appconfigdata.StartConfigurationSessionInput, _ ...func(*appconfigdata.Options),
) (*appconfigdata.StartConfigurationSessionOutput, error) {
	f.sessions = append(f.sessions, in)
	return &appconfigdata.StartConfigurationSessionOutput{InitialConfigurationToken: aws.String("token-1")}, nil
}

func (f *fakeData) GetLatestConfiguration(
	_ context.Context, in *appconfigdata.GetLatestConfigurationInput, _ ...func(*appconfigdata.Options),
) (*appconfigdata.GetLatestConfigurationOutput, error) {
	return &appconfigdata.GetLatestConfigurationOutput{
		Configuration:              f.content,
		ContentType:                aws.String(f.contentType),
		NextPollConfigurationToken: aws.String("token-2"),
	}, nil
}
