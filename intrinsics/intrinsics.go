// Package intrinsics provides CloudFormation intrinsic functions.
//
// The core intrinsic types come from cloudformation-schema-go; this package
// re-exports them next to the bucket policy helpers used by the website stack.
//
//	Ref{LogicalName: "WebsiteBucket"} → {"Ref": "WebsiteBucket"}
//	Join{Delimiter: "", Values: []any{"a", "b"}} → {"Fn::Join": ["", ["a", "b"]]}
//	Sub{String: "${AWS::StackName}-site"} → {"Fn::Sub": "${AWS::StackName}-site"}
package intrinsics

import "github.com/lex00/cloudformation-schema-go/intrinsics"

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// SubWithMap is Fn::Sub with a variable map.
	SubWithMap = intrinsics.SubWithMap

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Select represents a CloudFormation Fn::Select intrinsic function.
	Select = intrinsics.Select

	// Split represents a CloudFormation Fn::Split intrinsic function.
	Split = intrinsics.Split

	// If represents a CloudFormation Fn::If intrinsic function.
	If = intrinsics.If

	// Equals represents a CloudFormation Fn::Equals condition function.
	Equals = intrinsics.Equals

	// And represents a CloudFormation Fn::And condition function.
	And = intrinsics.And

	// Or represents a CloudFormation Fn::Or condition function.
	Or = intrinsics.Or

	// Not represents a CloudFormation Fn::Not condition function.
	Not = intrinsics.Not

	// Condition represents a CloudFormation Condition reference.
	Condition = intrinsics.Condition

	// ImportValue represents a CloudFormation Fn::ImportValue intrinsic function.
	ImportValue = intrinsics.ImportValue

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)
