package certificatemanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unleashedlab/sitestack/internal/serialize"
)

func TestCertificate(t *testing.T) {
	cert := &Certificate{
		DomainName:              "example.com",
		SubjectAlternativeNames: []string{"www.example.com"},
		ValidationMethod:        ValidationDNS,
		DomainValidationOptions: []DomainValidationOption{
			{DomainName: "example.com", HostedZoneId: "Z123"},
			{DomainName: "www.example.com", HostedZoneId: "Z123"},
		},
	}

	assert.Equal(t, "AWS::CertificateManager::Certificate", cert.ResourceType())
	assert.Equal(t, []string{"example.com", "www.example.com"}, cert.Names())

	props, err := serialize.Resource(cert)
	require.NoError(t, err)
	assert.Equal(t, "DNS", props["ValidationMethod"])
	assert.Len(t, props["DomainValidationOptions"], 2)
	assert.NotContains(t, props, "Tags")
}
