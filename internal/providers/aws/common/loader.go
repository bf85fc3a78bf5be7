package common

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// fallbackRegion is used when a profile has no region configured.
const fallbackRegion = "us-east-1"

// DefaultAWSClientProvider reads credentials from the shared AWS config and
// credentials files through the SDK's default chain.
type DefaultAWSClientProvider struct {
	factory ClientFactory
	homeDir func() (string, error)
}

// NewDefaultAWSClientProvider returns a provider backed by the real AWS SDK.
func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return NewDefaultAWSClientProviderWithFactory(NewClientSet)
}

// NewDefaultAWSClientProviderWithFactory returns a provider that builds its
// clients with f. Tests pass a factory returning fakes.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f, homeDir: os.UserHomeDir}
}

// LoadProfile loads the SDK config for profile and resolves its account ID.
func (p *DefaultAWSClientProvider) LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", displayName(profile), err)
	}
	return p.fromConfig(ctx, profile, cfg)
}

// fromConfig completes a loaded SDK config into a ProfileConfig.
func (p *DefaultAWSClientProvider) fromConfig(ctx context.Context, profile string, cfg aws.Config) (*ProfileConfig, error) {
	if cfg.Region == "" {
		cfg.Region = fallbackRegion
	}
	clients := p.factory(cfg)

	out, err := clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("resolve account ID for profile %q: %w", displayName(profile), err)
	}
	if out.Account == nil {
		return nil, fmt.Errorf("resolve account ID for profile %q: STS returned no account", displayName(profile))
	}

	return &ProfileConfig{
		ProfileName: displayName(profile),
		AccountID:   aws.ToString(out.Account),
		Region:      cfg.Region,
		Config:      cfg,
		Clients:     clients,
	}, nil
}

// LoadAllProfiles loads every profile named in the shared files. Profiles
// without usable credentials are skipped.
func (p *DefaultAWSClientProvider) LoadAllProfiles(ctx context.Context) ([]*ProfileConfig, error) {
	names, err := p.profileNames()
	if err != nil {
		return nil, fmt.Errorf("discover AWS profiles: %w", err)
	}

	var profiles []*ProfileConfig
	for _, name := range names {
		arg := name
		if name == "default" {
			arg = ""
		}
		if pc, err := p.LoadProfile(ctx, arg); err == nil {
			profiles = append(profiles, pc)
		}
	}
	return profiles, nil
}

// GetActiveRegions lists the regions the account has opted into.
func (p *DefaultAWSClientProvider) GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error) {
	out, err := cfg.Clients.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{AllRegions: aws.Bool(false)})
	if err != nil {
		return nil, fmt.Errorf("describe regions for profile %q: %w", cfg.ProfileName, err)
	}
	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	slices.Sort(regions)
	return regions, nil
}

// ConfigForRegion returns a copy of cfg.Config scoped to region.
func (p *DefaultAWSClientProvider) ConfigForRegion(cfg *ProfileConfig, region string) aws.Config {
	regional := cfg.Config
	regional.Region = region
	return regional
}

// ResolveRegions returns requested when set, validated against the account's
// active regions; otherwise every active region.
func ResolveRegions(ctx context.Context, provider AWSClientProvider, cfg *ProfileConfig, requested []string) ([]string, error) {
	active, err := provider.GetActiveRegions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return active, nil
	}
	for _, r := range requested {
		if !slices.Contains(active, r) {
			return nil, fmt.Errorf("region %q is not enabled for account %s", r, cfg.AccountID)
		}
	}
	return requested, nil
}

func displayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// profileNames returns the deduplicated profile names of ~/.aws/credentials
// followed by those of ~/.aws/config.
func (p *DefaultAWSClientProvider) profileNames() ([]string, error) {
	home, err := p.homeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	creds, err := sectionNames(filepath.Join(home, ".aws", "credentials"), false)
	if err != nil {
		return nil, err
	}
	conf, err := sectionNames(filepath.Join(home, ".aws", "config"), true)
	if err != nil {
		return nil, err
	}

	var all []string
	for _, name := range append(creds, conf...) {
		if name != "" && !slices.Contains(all, name) {
			all = append(all, name)
		}
	}
	return all, nil
}

// sectionNames returns the INI section names of path. In ~/.aws/config
// non-default sections carry a "profile " prefix, stripped when
// configFile is set. A missing file yields no names.
func sectionNames(path string, configFile bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}
		name := strings.TrimSpace(line[1 : len(line)-1])
		if configFile {
			name = strings.TrimSpace(strings.TrimPrefix(name, "profile "))
		}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return names, nil
}
