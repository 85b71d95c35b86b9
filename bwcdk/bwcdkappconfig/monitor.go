package bwcdkappconfig

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsappconfig"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// Monitor is an alarm AppConfig watches during deployments. When the alarm fires the
// deployment is rolled back.
type Monitor struct {
	alarmArn     *string
	alarmRoleArn *string
	alarm        awscloudwatch.IAlarm
	role         awsiam.IRole
}

// MonitorFromCloudWatchAlarm watches a CloudWatch alarm. A role allowing AppConfig to
// describe the alarm is created when role is nil.
func MonitorFromCloudWatchAlarm(alarm awscloudwatch.IAlarm, role awsiam.IRole) Monitor {
	return Monitor{alarm: alarm, role: role}
}

// MonitorFromAlarmArn watches an alarm by ARN. The role ARN is passed through as-is.
func MonitorFromAlarmArn(alarmArn string, alarmRoleArn *string) Monitor {
	return Monitor{alarmArn: jsii.String(alarmArn), alarmRoleArn: alarmRoleArn}
}

// monitorProperties renders the monitors as CloudFormation properties, creating
// alarm roles under scope where needed.
func monitorProperties(scope constructs.Construct, monitors []Monitor) []*awsappconfig.CfnEnvironment_MonitorProperty {
	out := make([]*awsappconfig.CfnEnvironment_MonitorProperty, 0, len(monitors))
	for i, m := range monitors {
		prop := &awsappconfig.CfnEnvironment_MonitorProperty{}
		switch {
		case m.alarm != nil:
			prop.AlarmArn = m.alarm.AlarmArn()
			role := m.role
			if role == nil {
				role = newAlarmRole(scope, fmt.Sprintf("MonitorRole%d", i), m.alarm)
			}
			prop.AlarmRoleArn = role.RoleArn()
		default:
			prop.AlarmArn = m.alarmArn
			prop.AlarmRoleArn = m.alarmRoleArn
		}
		out = append(out, prop)
	}
	return out
}

func newAlarmRole(scope constructs.Construct, id string, alarm awscloudwatch.IAlarm) awsiam.IRole {
	resource := alarm.AlarmArn()
	if _, composite := alarm.(awscloudwatch.CompositeAlarm); composite {
		resource = jsii.String("*")
	}
	return awsiam.NewRole(scope, jsii.String(id), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String(appConfigPrincipal), nil),
		InlinePolicies: &map[string]awsiam.PolicyDocument{
			"AllowAppConfigMonitorAlarm": awsiam.NewPolicyDocument(&awsiam.PolicyDocumentProps{
				Statements: &[]awsiam.PolicyStatement{
					awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
						Effect:    awsiam.Effect_ALLOW,
						Actions:   jsii.Strings("cloudwatch:DescribeAlarms"),
						Resources: &[]*string{resource},
					}),
				},
			}),
		},
	})
}
