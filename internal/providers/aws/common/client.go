package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ProfileConfig is a resolved AWS profile: its SDK configuration, the account
// it belongs to and the clients used for account-level discovery.
type ProfileConfig struct {
	// ProfileName is the name from ~/.aws/credentials or "default".
	ProfileName string

	// AccountID is resolved through STS GetCallerIdentity.
	AccountID string

	// Region is the home region of the profile.
	Region string

	Config  aws.Config
	Clients *ClientSet
}

// Source formats the provenance recorded on inventory resources:
// "<region>/<account>".
func (p *ProfileConfig) Source(region string) string {
	return region + "/" + p.AccountID
}

// AWSClientProvider loads AWS configurations and resolves the regions an
// inventory scan should cover. It is the only place credentials are handled.
type AWSClientProvider interface {
	// LoadProfile returns a ProfileConfig for the named profile.
	// Pass an empty string to load the default profile.
	LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error)

	// LoadAllProfiles returns every profile found in ~/.aws/credentials and
	// ~/.aws/config that has usable credentials.
	LoadAllProfiles(ctx context.Context) ([]*ProfileConfig, error)

	// GetActiveRegions returns the regions enabled for the account of cfg.
	GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error)

	// ConfigForRegion clones cfg with the target region set.
	ConfigForRegion(cfg *ProfileConfig, region string) aws.Config
}
