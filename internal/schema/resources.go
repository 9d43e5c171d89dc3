package schema

var (
	str     = PropertySchema{Type: "String"}
	boolean = PropertySchema{Type: "Boolean"}
	list    = PropertySchema{Type: "List"}
	object  = PropertySchema{Type: "Map"}
)

// Lookup returns the schema of a resource type.
func Lookup(resourceType string) (ResourceSchema, bool) {
	s, ok := resourceSchemas[resourceType]
	return s, ok
}

// resourceSchemas holds the resource types of a static website stack.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::S3::Bucket": {
		Type: "AWS::S3::Bucket",
		Properties: map[string]PropertySchema{
			"BucketName": str,
			"AccessControl": {Type: "String", AllowedValues: []string{
				"Private", "PublicRead", "PublicReadWrite", "AuthenticatedRead",
				"LogDeliveryWrite", "BucketOwnerRead", "BucketOwnerFullControl", "AwsExecRead",
			}},
			"BucketEncryption": {
				Type:     "Map",
				Required: []string{"ServerSideEncryptionConfiguration"},
				Properties: map[string]PropertySchema{
					"ServerSideEncryptionConfiguration": list,
				},
			},
			"VersioningConfiguration": {
				Type:     "Map",
				Required: []string{"Status"},
				Properties: map[string]PropertySchema{
					"Status": {Type: "String", AllowedValues: []string{"Enabled", "Suspended"}},
				},
			},
			"PublicAccessBlockConfiguration": {
				Type: "Map",
				Properties: map[string]PropertySchema{
					"BlockPublicAcls":       boolean,
					"BlockPublicPolicy":     boolean,
					"IgnorePublicAcls":      boolean,
					"RestrictPublicBuckets": boolean,
				},
			},
			"WebsiteConfiguration": {
				Type: "Map",
				Properties: map[string]PropertySchema{
					"IndexDocument": str,
					"ErrorDocument": str,
				},
			},
			"OwnershipControls":      object,
			"LifecycleConfiguration": object,
			"LoggingConfiguration":   object,
			"Tags":                   list,
		},
	},
	"AWS::S3::BucketPolicy": {
		Type:     "AWS::S3::BucketPolicy",
		Required: []string{"Bucket", "PolicyDocument"},
		Properties: map[string]PropertySchema{
			"Bucket":         str,
			"PolicyDocument": object,
		},
	},
	"AWS::CloudFront::CloudFrontOriginAccessIdentity": {
		Type:     "AWS::CloudFront::CloudFrontOriginAccessIdentity",
		Required: []string{"CloudFrontOriginAccessIdentityConfig"},
		Properties: map[string]PropertySchema{
			"CloudFrontOriginAccessIdentityConfig": {
				Type:     "Map",
				Required: []string{"Comment"},
				Properties: map[string]PropertySchema{
					"Comment": str,
				},
			},
		},
	},
	"AWS::CloudFront::Distribution": {
		Type:     "AWS::CloudFront::Distribution",
		Required: []string{"DistributionConfig"},
		Properties: map[string]PropertySchema{
			"DistributionConfig": {
				Type:     "Map",
				Required: []string{"DefaultCacheBehavior", "Enabled"},
				Properties: map[string]PropertySchema{
					"Enabled":           boolean,
					"Comment":           str,
					"Aliases":           list,
					"DefaultRootObject": str,
					"HttpVersion":       {Type: "String", AllowedValues: []string{"http1.1", "http2", "http3", "http2and3"}},
					"IPV6Enabled":       boolean,
					"PriceClass":        {Type: "String", AllowedValues: []string{"PriceClass_100", "PriceClass_200", "PriceClass_All"}},
					"DefaultCacheBehavior": {
						Type:     "Map",
						Required: []string{"TargetOriginId", "ViewerProtocolPolicy"},
						Properties: map[string]PropertySchema{
							"TargetOriginId":       str,
							"ViewerProtocolPolicy": {Type: "String", AllowedValues: []string{"allow-all", "redirect-to-https", "https-only"}},
							"CachePolicyId":        str,
							"Compress":             boolean,
							"AllowedMethods":       list,
							"CachedMethods":        list,
						},
					},
					"Origins":              list,
					"CustomErrorResponses": list,
					"ViewerCertificate": {
						Type: "Map",
						Properties: map[string]PropertySchema{
							"SslSupportMethod":             {Type: "String", AllowedValues: []string{"sni-only", "vip", "static-ip"}},
							"MinimumProtocolVersion":       str,
							"CloudFrontDefaultCertificate": boolean,
						},
					},
					"Logging": object,
				},
			},
			"Tags": list,
		},
	},
	"AWS::CertificateManager::Certificate": {
		Type:     "AWS::CertificateManager::Certificate",
		Required: []string{"DomainName"},
		Properties: map[string]PropertySchema{
			"DomainName":              str,
			"SubjectAlternativeNames": list,
			"ValidationMethod":        {Type: "String", AllowedValues: []string{"DNS", "EMAIL"}},
			"DomainValidationOptions": list,
			"CertificateTransparencyLoggingPreference": {
				Type:          "String",
				AllowedValues: []string{"ENABLED", "DISABLED"},
			},
			"Tags": list,
		},
	},
	"AWS::Route53::RecordSetGroup": {
		Type:     "AWS::Route53::RecordSetGroup",
		Required: []string{"RecordSets"},
		Properties: map[string]PropertySchema{
			"HostedZoneId":   str,
			"HostedZoneName": str,
			"Comment":        str,
			"RecordSets":     list,
		},
	},
}
