package optimizer

import (
	"github.com/tidwall/gjson"
)

var rulesByType = map[string][]Rule{
	"AWS::S3::Bucket":                      s3BucketRules,
	"AWS::CloudFront::Distribution":        distributionRules,
	"AWS::CertificateManager::Certificate": certificateRules,
}

// s3BucketRules contains optimization rules for S3 buckets.
var s3BucketRules = []Rule{
	{
		ID:          "OPT-S3-001",
		Category:    "reliability",
		Severity:    "medium",
		Title:       "Enable bucket versioning",
		Description: "Versioning keeps earlier copies of objects that a publish overwrites or prunes.",
		Suggestion:  "Set VersioningConfiguration.Status to Enabled.",
		Applies: func(props gjson.Result) bool {
			return props.Get("VersioningConfiguration.Status").String() != "Enabled"
		},
	},
	{
		ID:          "OPT-S3-002",
		Category:    "cost",
		Severity:    "low",
		Title:       "Expire noncurrent object versions",
		Description: "Every publish of a versioned bucket keeps the replaced objects, so storage grows with each deployment.",
		Suggestion:  "Add a LifecycleConfiguration rule with NoncurrentVersionExpiration.",
		Applies: func(props gjson.Result) bool {
			if props.Get("VersioningConfiguration.Status").String() != "Enabled" {
				return false
			}
			for _, rule := range props.Get("LifecycleConfiguration.Rules").Array() {
				if rule.Get("NoncurrentVersionExpiration").Exists() {
					return false
				}
			}
			return true
		},
	},
	{
		ID:          "OPT-S3-003",
		Category:    "security",
		Severity:    "low",
		Title:       "Disable object ACLs",
		Description: "With ACLs disabled the bucket policy is the only way to grant access to objects.",
		Suggestion:  "Add OwnershipControls with ObjectOwnership BucketOwnerEnforced.",
		Applies: func(props gjson.Result) bool {
			return props.Get("OwnershipControls.Rules.0.ObjectOwnership").String() != "BucketOwnerEnforced"
		},
	},
}

// distributionRules contains optimization rules for CloudFront distributions.
var distributionRules = []Rule{
	{
		ID:          "OPT-CF-001",
		Category:    "cost",
		Severity:    "medium",
		Title:       "Restrict the price class",
		Description: "PriceClass_All serves from every edge location, including the most expensive regions.",
		Suggestion:  "Set PriceClass to PriceClass_100 or PriceClass_200 when visitors are concentrated in North America and Europe.",
		Applies: func(props gjson.Result) bool {
			pc := props.Get("DistributionConfig.PriceClass").String()
			return pc == "" || pc == "PriceClass_All"
		},
	},
	{
		ID:          "OPT-CF-002",
		Category:    "performance",
		Severity:    "high",
		Title:       "Compress responses",
		Description: "Text assets such as HTML, CSS and JavaScript are served uncompressed.",
		Suggestion:  "Set DefaultCacheBehavior.Compress to true.",
		Applies: func(props gjson.Result) bool {
			return !props.Get("DistributionConfig.DefaultCacheBehavior.Compress").Bool()
		},
	},
	{
		ID:          "OPT-CF-003",
		Category:    "performance",
		Severity:    "low",
		Title:       "Enable HTTP/3",
		Description: "HTTP/3 reduces connection setup time for viewers on lossy networks.",
		Suggestion:  "Set HttpVersion to http2and3.",
		Applies: func(props gjson.Result) bool {
			v := props.Get("DistributionConfig.HttpVersion").String()
			return v != "http2and3" && v != "http3"
		},
	},
	{
		ID:          "OPT-CF-004",
		Category:    "performance",
		Severity:    "medium",
		Title:       "Use a managed cache policy",
		Description: "Without a cache policy the behavior falls back to legacy forwarded-values caching.",
		Suggestion:  "Set DefaultCacheBehavior.CachePolicyId to the CachingOptimized managed policy.",
		Applies: func(props gjson.Result) bool {
			return !props.Get("DistributionConfig.DefaultCacheBehavior.CachePolicyId").Exists()
		},
	},
	{
		ID:          "OPT-CF-005",
		Category:    "reliability",
		Severity:    "low",
		Title:       "Serve an error page",
		Description: "Missing objects return the S3 403 AccessDenied XML document to viewers.",
		Suggestion:  "Set errorDocument so 403 and 404 responses return a page from the site.",
		Applies: func(props gjson.Result) bool {
			return len(props.Get("DistributionConfig.CustomErrorResponses").Array()) == 0
		},
	},
	{
		ID:          "OPT-CF-006",
		Category:    "performance",
		Severity:    "low",
		Title:       "Enable IPv6",
		Description: "Viewers on IPv6-only networks reach the distribution through translation gateways.",
		Suggestion:  "Set IPV6Enabled to true and publish AAAA alias records.",
		Applies: func(props gjson.Result) bool {
			return !props.Get("DistributionConfig.IPV6Enabled").Bool()
		},
	},
	{
		ID:          "OPT-CF-007",
		Category:    "security",
		Severity:    "low",
		Title:       "Enable access logging",
		Description: "Standard logs record every viewer request for audits and traffic analysis.",
		Suggestion:  "Add DistributionConfig.Logging with a log bucket.",
		Applies: func(props gjson.Result) bool {
			return !props.Get("DistributionConfig.Logging.Bucket").Exists()
		},
	},
}

// certificateRules contains optimization rules for ACM certificates.
var certificateRules = []Rule{
	{
		ID:          "OPT-ACM-001",
		Category:    "reliability",
		Severity:    "high",
		Title:       "Keep certificate transparency logging",
		Description: "Browsers reject certificates that are not recorded in a public transparency log.",
		Suggestion:  "Remove CertificateTransparencyLoggingPreference or set it to ENABLED.",
		Applies: func(props gjson.Result) bool {
			return props.Get("CertificateTransparencyLoggingPreference").String() == "DISABLED"
		},
	},
	{
		ID:          "OPT-ACM-002",
		Category:    "reliability",
		Severity:    "medium",
		Title:       "Validate through DNS",
		Description: "Email validated certificates need a person to approve every renewal.",
		Suggestion:  "Set ValidationMethod to DNS with DomainValidationOptions for the hosted zone.",
		Applies: func(props gjson.Result) bool {
			return props.Get("ValidationMethod").String() != "DNS"
		},
	},
}
