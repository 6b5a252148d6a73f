package s3svc

import (
	"regexp"
	"strings"
)

// defaultSigningRegion is used when neither the profile nor the endpoint name a region.
const defaultSigningRegion = "us-east-1"

// ProviderProfile describes an S3-compatible provider family.
// A zero key length disables the corresponding credential length check.
type ProviderProfile struct {
	Name         string
	Match        []string
	AccessKeyLen int
	SecretKeyLen int
	// Region is the fixed signing region of the provider, when it has one.
	Region string
	// RegionPattern extracts the region from the endpoint host (first submatch).
	RegionPattern *regexp.Regexp
}

// Matches reports whether endpoint belongs to the provider.
func (p ProviderProfile) Matches(endpoint string) bool {
	endpoint = strings.ToLower(endpoint)
	for _, m := range p.Match {
		if strings.Contains(endpoint, m) {
			return true
		}
	}
	return false
}

// SigningRegion returns the region requests to endpoint are signed for.
func (p ProviderProfile) SigningRegion(endpoint string) string {
	if p.Region != "" {
		return p.Region
	}
	if p.RegionPattern != nil {
		if m := p.RegionPattern.FindStringSubmatch(strings.ToLower(endpoint)); m != nil {
			return m[1]
		}
	}
	return defaultSigningRegion
}

// GenericProfile is used for endpoints no profile matches. It checks nothing.
var GenericProfile = ProviderProfile{Name: "generic"}

// Profiles is an ordered lookup table; the first match wins.
type Profiles []ProviderProfile

// DefaultProfiles returns the built-in provider table.
func DefaultProfiles() Profiles {
	return Profiles{
		{
			Name:          "aws",
			Match:         []string{"amazonaws.com"},
			AccessKeyLen:  20,
			SecretKeyLen:  40,
			RegionPattern: regexp.MustCompile(`s3[.-]([a-z0-9-]+)\.amazonaws\.com`),
		},
		{
			Name:          "digitalocean",
			Match:         []string{"digitaloceanspaces.com"},
			AccessKeyLen:  20,
			SecretKeyLen:  43,
			RegionPattern: regexp.MustCompile(`([a-z0-9-]+)\.digitaloceanspaces\.com`),
		},
		{
			Name:          "wasabi",
			Match:         []string{"wasabisys.com"},
			AccessKeyLen:  20,
			SecretKeyLen:  40,
			RegionPattern: regexp.MustCompile(`s3\.([a-z0-9-]+)\.wasabisys\.com`),
		},
		{
			Name:         "cloudflare-r2",
			Match:        []string{"r2.cloudflarestorage.com"},
			AccessKeyLen: 32,
			SecretKeyLen: 64,
			Region:       "auto",
		},
		{
			Name:          "backblaze",
			Match:         []string{"backblazeb2.com"},
			AccessKeyLen:  25,
			SecretKeyLen:  31,
			RegionPattern: regexp.MustCompile(`s3\.([a-z0-9-]+)\.backblazeb2\.com`),
		},
		{
			Name:          "linode",
			Match:         []string{"linodeobjects.com"},
			AccessKeyLen:  20,
			SecretKeyLen:  40,
			RegionPattern: regexp.MustCompile(`([a-z0-9-]+)\.linodeobjects\.com`),
		},
	}
}

// Detect returns the profile of endpoint, or GenericProfile.
func (p Profiles) Detect(endpoint string) ProviderProfile {
	for _, profile := range p {
		if profile.Matches(endpoint) {
			return profile
		}
	}
	return GenericProfile
}
