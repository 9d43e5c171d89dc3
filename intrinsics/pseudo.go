package intrinsics

import (
	"strings"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// Pseudo-parameters are predefined by CloudFormation and resolve to values
// of the stack being deployed.
//
//	Comment: Join{Delimiter: " ", Values: Any(AWS_STACK_NAME, "site")}
var (
	AWS_ACCOUNT_ID        = intrinsics.AWS_ACCOUNT_ID
	AWS_NOTIFICATION_ARNS = intrinsics.AWS_NOTIFICATION_ARNS
	AWS_NO_VALUE          = intrinsics.AWS_NO_VALUE
	AWS_PARTITION         = intrinsics.AWS_PARTITION
	AWS_REGION            = intrinsics.AWS_REGION
	AWS_STACK_ID          = intrinsics.AWS_STACK_ID
	AWS_STACK_NAME        = intrinsics.AWS_STACK_NAME
	AWS_URL_SUFFIX        = intrinsics.AWS_URL_SUFFIX
)

// IsPseudo reports whether a Ref target is a pseudo-parameter rather than a
// logical ID in the template.
func IsPseudo(name string) bool {
	return strings.HasPrefix(name, "AWS::")
}
