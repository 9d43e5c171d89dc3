package lint

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	typeBucket       = "AWS::S3::Bucket"
	typeBucketPolicy = "AWS::S3::BucketPolicy"
	typeDistribution = "AWS::CloudFront::Distribution"
	typeCertificate  = "AWS::CertificateManager::Certificate"
)

// BucketEncryption requires default encryption on every bucket.
type BucketEncryption struct{}

func (BucketEncryption) ID() string { return "SS001" }
func (BucketEncryption) Description() string {
	return "S3 bucket must declare BucketEncryption"
}

func (r BucketEncryption) Check(doc gjson.Result) []Issue {
	var issues []Issue
	resourcesOfType(doc, typeBucket, func(id string, res gjson.Result) {
		rules := res.Get("Properties.BucketEncryption.ServerSideEncryptionConfiguration")
		if !rules.IsArray() || len(rules.Array()) == 0 {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Resource: id,
				Path:     "BucketEncryption",
				Message:  "bucket has no default encryption",
				Severity: SeverityError,
			})
		}
	})
	return issues
}

// BucketPublicAccessBlock requires all four public access block flags.
type BucketPublicAccessBlock struct{}

func (BucketPublicAccessBlock) ID() string { return "SS002" }
func (BucketPublicAccessBlock) Description() string {
	return "S3 bucket must block all four public access flags"
}

var publicAccessFlags = []string{"BlockPublicAcls", "BlockPublicPolicy", "IgnorePublicAcls", "RestrictPublicBuckets"}

func (r BucketPublicAccessBlock) Check(doc gjson.Result) []Issue {
	var issues []Issue
	resourcesOfType(doc, typeBucket, func(id string, res gjson.Result) {
		block := res.Get("Properties.PublicAccessBlockConfiguration")
		var missing []string
		for _, flag := range publicAccessFlags {
			if !block.Get(flag).Bool() {
				missing = append(missing, flag)
			}
		}
		if len(missing) > 0 {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Resource: id,
				Path:     "PublicAccessBlockConfiguration",
				Message:  "public access not blocked: " + strings.Join(missing, ", "),
				Severity: SeverityError,
			})
		}
	})
	return issues
}

// BucketEnforceSSL requires a bucket policy denying non-TLS requests.
type BucketEnforceSSL struct{}

func (BucketEnforceSSL) ID() string { return "SS003" }
func (BucketEnforceSSL) Description() string {
	return "Every bucket must have a bucket policy denying aws:SecureTransport=false"
}

func (r BucketEnforceSSL) Check(doc gjson.Result) []Issue {
	enforced := make(map[string]bool)
	resourcesOfType(doc, typeBucketPolicy, func(_ string, res gjson.Result) {
		bucket := res.Get("Properties.Bucket.Ref").String()
		if bucket == "" {
			return
		}
		res.Get("Properties.PolicyDocument.Statement").ForEach(func(_, stmt gjson.Result) bool {
			secure := stmt.Get(`Condition.Bool.aws:SecureTransport`)
			if stmt.Get("Effect").String() == "Deny" && secure.Exists() && !secure.Bool() {
				enforced[bucket] = true
				return false
			}
			return true
		})
	})

	var issues []Issue
	resourcesOfType(doc, typeBucket, func(id string, _ gjson.Result) {
		if !enforced[id] {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Resource: id,
				Message:  "no bucket policy denies requests without TLS",
				Severity: SeverityError,
			})
		}
	})
	return issues
}

// DistributionHTTPS forbids cache behaviors that allow plain HTTP.
type DistributionHTTPS struct{}

func (DistributionHTTPS) ID() string { return "SS004" }
func (DistributionHTTPS) Description() string {
	return "Distribution cache behaviors must not use allow-all"
}

func (r DistributionHTTPS) Check(doc gjson.Result) []Issue {
	var issues []Issue
	resourcesOfType(doc, typeDistribution, func(id string, res gjson.Result) {
		config := res.Get("Properties.DistributionConfig")
		check := func(path string, behavior gjson.Result) {
			if behavior.Get("ViewerProtocolPolicy").String() == "allow-all" {
				issues = append(issues, Issue{
					Rule:     r.ID(),
					Resource: id,
					Path:     "DistributionConfig." + path + ".ViewerProtocolPolicy",
					Message:  "viewers may use plain HTTP; use redirect-to-https or https-only",
					Severity: SeverityError,
				})
			}
		}
		check("DefaultCacheBehavior", config.Get("DefaultCacheBehavior"))
		for i, b := range config.Get("CacheBehaviors").Array() {
			check(fmt.Sprintf("CacheBehaviors.%d", i), b)
		}
	})
	return issues
}

// DistributionTLSVersion warns about viewer TLS below 1.2.
type DistributionTLSVersion struct{}

func (DistributionTLSVersion) ID() string { return "SS005" }
func (DistributionTLSVersion) Description() string {
	return "Viewer certificate minimum protocol must be TLSv1.2 or newer"
}

func (r DistributionTLSVersion) Check(doc gjson.Result) []Issue {
	var issues []Issue
	resourcesOfType(doc, typeDistribution, func(id string, res gjson.Result) {
		cert := res.Get("Properties.DistributionConfig.ViewerCertificate")
		if !cert.Exists() || cert.Get("CloudFrontDefaultCertificate").Bool() {
			return
		}
		version := cert.Get("MinimumProtocolVersion").String()
		if strings.HasPrefix(version, "TLSv1.2") || strings.HasPrefix(version, "TLSv1.3") {
			return
		}
		if version == "" {
			version = "TLSv1 (default)"
		}
		issues = append(issues, Issue{
			Rule:     r.ID(),
			Resource: id,
			Path:     "DistributionConfig.ViewerCertificate.MinimumProtocolVersion",
			Message:  "minimum protocol " + version + " is older than TLSv1.2",
			Severity: SeverityWarning,
		})
	})
	return issues
}

// OriginAccessIdentity requires S3 origins to be reachable only through
// CloudFront.
type OriginAccessIdentity struct{}

func (OriginAccessIdentity) ID() string { return "SS006" }
func (OriginAccessIdentity) Description() string {
	return "S3 origins must use an origin access identity"
}

func (r OriginAccessIdentity) Check(doc gjson.Result) []Issue {
	var issues []Issue
	resourcesOfType(doc, typeDistribution, func(id string, res gjson.Result) {
		for i, origin := range res.Get("Properties.DistributionConfig.Origins").Array() {
			s3 := origin.Get("S3OriginConfig")
			if !s3.Exists() {
				continue
			}
			oai := s3.Get("OriginAccessIdentity")
			if oai.Exists() && oai.String() != "" || origin.Get("OriginAccessControlId").Exists() {
				continue
			}
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Resource: id,
				Path:     fmt.Sprintf("DistributionConfig.Origins.%d.S3OriginConfig", i),
				Message:  fmt.Sprintf("origin %q reads the bucket without an origin access identity", origin.Get("Id").String()),
				Severity: SeverityError,
			})
		}
	})
	return issues
}

// BucketRetained warns when a bucket would be deleted with its stack.
type BucketRetained struct{}

func (BucketRetained) ID() string { return "SS007" }
func (BucketRetained) Description() string {
	return "Buckets should be retained on delete"
}

func (r BucketRetained) Check(doc gjson.Result) []Issue {
	var issues []Issue
	resourcesOfType(doc, typeBucket, func(id string, res gjson.Result) {
		if res.Get("DeletionPolicy").String() != "Retain" {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Resource: id,
				Message:  "bucket and its content are deleted with the stack; set DeletionPolicy Retain",
				Severity: SeverityWarning,
			})
		}
	})
	return issues
}

// CertificateDNSValidation prefers DNS validation, which renews without
// manual steps.
type CertificateDNSValidation struct{}

func (CertificateDNSValidation) ID() string { return "SS008" }
func (CertificateDNSValidation) Description() string {
	return "Certificates should use DNS validation"
}

func (r CertificateDNSValidation) Check(doc gjson.Result) []Issue {
	var issues []Issue
	resourcesOfType(doc, typeCertificate, func(id string, res gjson.Result) {
		if res.Get("Properties.ValidationMethod").String() != "DNS" {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Resource: id,
				Path:     "ValidationMethod",
				Message:  "certificate is not DNS validated",
				Severity: SeverityWarning,
			})
		}
	})
	return issues
}

// AliasesCoveredByCertificate checks every distribution alias against the
// names of the certificate it references.
type AliasesCoveredByCertificate struct{}

func (AliasesCoveredByCertificate) ID() string { return "SS009" }
func (AliasesCoveredByCertificate) Description() string {
	return "Distribution aliases must be covered by the certificate's names"
}

func (r AliasesCoveredByCertificate) Check(doc gjson.Result) []Issue {
	var issues []Issue
	resourcesOfType(doc, typeDistribution, func(id string, res gjson.Result) {
		config := res.Get("Properties.DistributionConfig")
		certID := config.Get("ViewerCertificate.AcmCertificateArn.Ref").String()
		cert := doc.Get("Resources." + gjson.Escape(certID))
		if certID == "" || cert.Get("Type").String() != typeCertificate {
			return
		}

		names := []string{cert.Get("Properties.DomainName").String()}
		for _, n := range cert.Get("Properties.SubjectAlternativeNames").Array() {
			names = append(names, n.String())
		}

		for _, alias := range config.Get("Aliases").Array() {
			if !covered(alias.String(), names) {
				issues = append(issues, Issue{
					Rule:     r.ID(),
					Resource: id,
					Path:     "DistributionConfig.Aliases",
					Message:  fmt.Sprintf("alias %q is not covered by %s", alias.String(), certID),
					Severity: SeverityWarning,
				})
			}
		}
	})
	return issues
}

// covered reports whether host matches one of the certificate names. A
// wildcard name covers exactly one extra label.
func covered(host string, names []string) bool {
	host = strings.ToLower(host)
	for _, n := range names {
		n = strings.ToLower(n)
		if n == host {
			return true
		}
		if suffix, ok := strings.CutPrefix(n, "*."); ok {
			label, rest, found := strings.Cut(host, ".")
			if found && label != "" && rest == suffix {
				return true
			}
		}
	}
	return false
}
