// Package bwcdkappconfig provides CDK constructs for AWS AppConfig.
//
// The constructs are built on the L1 awsappconfig resources and cover the full
// AppConfig surface: applications, environments, hosted and sourced configuration
// profiles, deployment strategies, deployments and extensions.
//
// # Deployments
//
// AppConfig only allows one deployment in flight per environment. Every environment
// therefore keeps an ordered queue of deployments: each deployment added to an
// environment depends on the previous one, so CloudFormation submits them one at a
// time in declaration order.
//
//	app := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})
//	beta := app.AddEnvironment("Beta", bwcdkappconfig.EnvironmentOptions{})
//	app.AddHostedConfiguration("Flags", bwcdkappconfig.HostedConfigurationOptions{
//		ConfigurationOptions: bwcdkappconfig.ConfigurationOptions{
//			Type: bwcdkappconfig.ConfigurationTypeFeatureFlags,
//		},
//		Content: bwcdkappconfig.ContentFromInlineJSON(`{"version":"1","flags":{},"values":{}}`),
//	})
//
// A configuration deploys to every environment its application holds at the time
// the configuration is created, unless DeployTo narrows the targets.
//
// # Validation
//
// Constructors validate their props before creating any resource and panic with a
// descriptive error when the props are invalid. Names and descriptions that are CDK
// tokens are not checked.
package bwcdkappconfig
