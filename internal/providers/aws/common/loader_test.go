package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ── test doubles ──────────────────────────────────────────────────────────────

type fakeSTS struct {
	account *string
	err     error
}

func (f fakeSTS) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: f.account}, f.err
}

type fakeRegions struct {
	regions []string
	err     error
}

func (f fakeRegions) DescribeRegions(context.Context, *ec2.DescribeRegionsInput, ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	out := &ec2.DescribeRegionsOutput{}
	for _, r := range f.regions {
		out.Regions = append(out.Regions, ec2types.Region{RegionName: aws.String(r)})
	}
	return out, f.err
}

func providerWith(sts fakeSTS, regions fakeRegions) *DefaultAWSClientProvider {
	return NewDefaultAWSClientProviderWithFactory(func(aws.Config) *ClientSet {
		return &ClientSet{STS: sts, EC2: regions}
	})
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestFromConfig_ResolvesAccount(t *testing.T) {
	p := providerWith(fakeSTS{account: aws.String("111122223333")}, fakeRegions{})

	pc, err := p.fromConfig(context.Background(), "", aws.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.ProfileName != "default" || pc.AccountID != "111122223333" || pc.Region != fallbackRegion {
		t.Errorf("unexpected profile: %+v", pc)
	}
	if got := pc.Source("eu-west-1"); got != "eu-west-1/111122223333" {
		t.Errorf("unexpected source %q", got)
	}
}

func TestFromConfig_STSFailure(t *testing.T) {
	p := providerWith(fakeSTS{err: errors.New("expired token")}, fakeRegions{})
	if _, err := p.fromConfig(context.Background(), "prod", aws.Config{Region: "eu-west-1"}); err == nil {
		t.Fatalf("expected error")
	}

	p = providerWith(fakeSTS{}, fakeRegions{})
	if _, err := p.fromConfig(context.Background(), "prod", aws.Config{Region: "eu-west-1"}); err == nil {
		t.Fatalf("expected error for nil account")
	}
}

func TestResolveRegions(t *testing.T) {
	p := providerWith(fakeSTS{}, fakeRegions{regions: []string{"us-east-1", "eu-west-1"}})
	pc := &ProfileConfig{AccountID: "1", Clients: p.factory(aws.Config{})}

	got, err := ResolveRegions(context.Background(), p, pc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"eu-west-1", "us-east-1"}) {
		t.Errorf("expected sorted active regions; got %v", got)
	}

	got, err = ResolveRegions(context.Background(), p, pc, []string{"us-east-1"})
	if err != nil || !reflect.DeepEqual(got, []string{"us-east-1"}) {
		t.Errorf("expected requested region; got %v, %v", got, err)
	}

	if _, err := ResolveRegions(context.Background(), p, pc, []string{"ap-south-2"}); err == nil {
		t.Errorf("expected error for region not enabled")
	}
}

func TestProfileNames(t *testing.T) {
	home := t.TempDir()
	awsDir := filepath.Join(home, ".aws")
	if err := os.Mkdir(awsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	creds := "[default]\naws_access_key_id = x\n\n[staging]\n"
	conf := "[default]\nregion = us-east-1\n[profile prod]\n[profile staging]\n"
	if err := os.WriteFile(filepath.Join(awsDir, "credentials"), []byte(creds), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(awsDir, "config"), []byte(conf), 0o600); err != nil {
		t.Fatal(err)
	}

	p := NewDefaultAWSClientProvider()
	p.homeDir = func() (string, error) { return home, nil }

	got, err := p.profileNames()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"default", "staging", "prod"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v; got %v", want, got)
	}
}

func TestSectionNames_MissingFile(t *testing.T) {
	got, err := sectionNames(filepath.Join(t.TempDir(), "absent"), false)
	if err != nil || got != nil {
		t.Errorf("expected no names and no error; got %v, %v", got, err)
	}
}
