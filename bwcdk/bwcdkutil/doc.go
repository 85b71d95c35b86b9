// Package bwcdkutil provides the scaffolding shared by all bwappcfg CDK code:
// validated context configuration, multi-region stack creation and resource naming.
//
// # Quick Start
//
//	func main() {
//	    defer jsii.Close()
//	    app := awscdk.NewApp(nil)
//
//	    bwcdkutil.SetupApp(app, bwcdkutil.AppConfig{
//	        Prefix:                "bwappcfg-",
//	        DeployersGroup:        "bwappcfg-deployers",
//	        RestrictedDeployments: []string{"Prod"},
//	    },
//	        func(stack awscdk.Stack) *Shared { return NewShared(stack) },
//	        func(stack awscdk.Stack, shared *Shared, deploymentIdent string) {
//	            NewDeployment(stack, shared, deploymentIdent)
//	        },
//	    )
//
//	    app.Synth(nil)
//	}
//
// # CDK Context Configuration
//
// With prefix "bwappcfg-" the following keys are read from cdk.json:
//
//	{
//	  "bwappcfg-qualifier": "bwappcfg",
//	  "bwappcfg-primary-region": "eu-central-1",
//	  "bwappcfg-secondary-regions": ["eu-west-1"],
//	  "bwappcfg-deployments": ["Beta", "Prod"],
//	  "bwappcfg-deployer-groups": "bwappcfg-deployers"
//	}
//
// # Stack Creation Order
//
// [SetupApp] creates stacks with the following dependency order:
//  1. Primary shared stack
//  2. Secondary shared stacks (depend on primary shared)
//  3. Primary deployment stacks (depend on primary shared)
//  4. Secondary deployment stacks (depend on primary deployment)
package bwcdkutil
