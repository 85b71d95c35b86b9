// Package bwcdkdynamo provides the deployment-history DynamoDB Global Table.
//
// The table is created in the primary region and replicated to every
// secondary region. Items use a partition key (pk) and sort key (sk), expire
// through the "ttl" attribute and can be listed per application through the
// gsi1 index.
package bwcdkdynamo

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkparams"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
	"github.com/iancoleman/strcase"
)

const paramsNamespace = "dynamo"

// TimeToLiveAttribute holds the epoch-seconds expiry of history items.
const TimeToLiveAttribute = "ttl"

// Dynamo provides access to a DynamoDB Global Table that works across regions.
type Dynamo interface {
	// Table returns the DynamoDB table. In secondary regions it references
	// the replica.
	Table() awsdynamodb.ITableV2
	// TableName returns the physical table name.
	TableName() *string
	// GrantReadData grants read-only permissions to the table and its indexes.
	GrantReadData(grantee awsiam.IGrantable)
	// GrantReadWriteData grants read/write permissions to the table and its indexes.
	GrantReadWriteData(grantee awsiam.IGrantable)
}

// Props configures the Dynamo construct.
type Props struct {
	// Identifier distinguishes this table from others in the same stack.
	// Example: "history" produces table name "{qualifier}-history-table" in a
	// shared stack. Defaults to "history".
	Identifier *string
}

type dynamo struct {
	table      awsdynamodb.ITableV2
	tableName  *string
	identifier string
}

func identifierOrDefault(identifier *string) string {
	if identifier != nil && *identifier != "" {
		return *identifier
	}
	return "history"
}

func paramName(scope constructs.Construct, identifier string) string {
	name := identifier + "/table-name"
	if ident := bwcdkutil.DeploymentIdent(scope); ident != "" {
		name = strings.ToLower(ident) + "/" + name
	}
	return name
}

// New creates the table in the primary region and stores its name in SSM.
// Secondary regions look the name up, reference the replica and store the
// name again in their own region for [LookupDynamo].
func New(scope constructs.Construct, props Props) Dynamo {
	identifier := identifierOrDefault(props.Identifier)

	constructID := "Dynamo" + bwcdkutil.ResourceName(scope, identifier, bwcdkutil.CasingCamel)
	scope = constructs.NewConstruct(scope, jsii.String(constructID))
	con := &dynamo{identifier: identifier}

	region := *awscdk.Stack_Of(scope).Region()
	tableName := bwcdkutil.ResourceName(scope, identifier+"-table", bwcdkutil.CasingKebab)
	param := paramName(scope, identifier)

	if bwcdkutil.IsPrimaryRegion(scope, region) {
		cfg := bwcdkutil.ConfigFromScope(scope)
		replicas := buildReplicas(cfg.SecondaryRegions)

		con.table = awsdynamodb.NewTableV2(scope, jsii.String("Table"), &awsdynamodb.TablePropsV2{
			TableName:           jsii.String(tableName),
			PartitionKey:        &awsdynamodb.Attribute{Name: jsii.String("pk"), Type: awsdynamodb.AttributeType_STRING},
			SortKey:             &awsdynamodb.Attribute{Name: jsii.String("sk"), Type: awsdynamodb.AttributeType_STRING},
			Billing:             awsdynamodb.Billing_OnDemand(nil),
			RemovalPolicy:       awscdk.RemovalPolicy_DESTROY,
			TimeToLiveAttribute: jsii.String(TimeToLiveAttribute),
			Replicas:            &replicas,
			PointInTimeRecoverySpecification: &awsdynamodb.PointInTimeRecoverySpecification{
				PointInTimeRecoveryEnabled: jsii.Bool(true),
			},
			GlobalSecondaryIndexes: &[]*awsdynamodb.GlobalSecondaryIndexPropsV2{
				{
					IndexName:    jsii.String("gsi1"),
					PartitionKey: &awsdynamodb.Attribute{Name: jsii.String("gsi1pk"), Type: awsdynamodb.AttributeType_STRING},
					SortKey:      &awsdynamodb.Attribute{Name: jsii.String("gsi1sk"), Type: awsdynamodb.AttributeType_STRING},
				},
			},
		})
		con.tableName = jsii.String(tableName)
	} else {
		con.tableName = bwcdkparams.Lookup(scope, "LookupTableName",
			paramsNamespace, param, identifier+"-table-name-lookup")
		con.table = awsdynamodb.TableV2_FromTableName(scope, jsii.String("Table"), con.tableName)
	}
	bwcdkparams.Store(scope, "TableNameParam", paramsNamespace, param, con.tableName)

	return con
}

// LookupDynamo references the table a shared stack of the same region created
// with [New], reading its name from the local parameter at deploy time. The
// caller's stack gets no cross-stack reference to the shared stack.
func LookupDynamo(scope constructs.Construct, identifier *string) Dynamo {
	ident := identifierOrDefault(identifier)
	scope = constructs.NewConstruct(scope, jsii.String("LookupDynamo"+strcase.ToCamel(ident)))

	tableName := bwcdkparams.LookupLocal(scope, paramsNamespace, ident+"/table-name")
	return &dynamo{
		identifier: ident,
		tableName:  tableName,
		table:      awsdynamodb.TableV2_FromTableName(scope, jsii.String("Table"), tableName),
	}
}

func (d *dynamo) Table() awsdynamodb.ITableV2 {
	return d.table
}

func (d *dynamo) TableName() *string {
	return d.tableName
}

func (d *dynamo) GrantReadData(grantee awsiam.IGrantable) {
	d.table.GrantReadData(grantee)
	d.grantIndexes(grantee)
}

func (d *dynamo) GrantReadWriteData(grantee awsiam.IGrantable) {
	d.table.GrantReadWriteData(grantee)
	d.grantIndexes(grantee)
}

func (d *dynamo) grantIndexes(grantee awsiam.IGrantable) {
	indexArn := jsii.Sprintf("%s/index/*", *d.table.TableArn())
	awsiam.Grant_AddToPrincipal(&awsiam.GrantOnPrincipalOptions{
		Grantee:      grantee,
		ResourceArns: &[]*string{indexArn},
		Actions: &[]*string{
			jsii.String("dynamodb:Query"),
			jsii.String("dynamodb:Scan"),
			jsii.String("dynamodb:GetItem"),
			jsii.String("dynamodb:BatchGetItem"),
			jsii.String("dynamodb:ConditionCheckItem"),
		},
	})
}

func buildReplicas(secondaryRegions []string) []*awsdynamodb.ReplicaTableProps {
	replicas := make([]*awsdynamodb.ReplicaTableProps, 0, len(secondaryRegions))
	for _, region := range secondaryRegions {
		replicas = append(replicas, &awsdynamodb.ReplicaTableProps{
			Region: jsii.String(region),
			PointInTimeRecoverySpecification: &awsdynamodb.PointInTimeRecoverySpecification{
				PointInTimeRecoveryEnabled: jsii.Bool(true),
			},
		})
	}
	return replicas
}
