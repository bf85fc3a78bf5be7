package inventory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
	ekssvc "github.com/aws/aws-sdk-go-v2/service/eks"
	guarddutysvc "github.com/aws/aws-sdk-go-v2/service/guardduty"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

// noRecorder names the placeholder status reported for a region without any
// AWS Config recorder, so the recording policy can flag it.
const noRecorder = "(none)"

// collectTrails returns the trails whose home region is region. Shadow copies
// of multi-region trails are excluded so every trail is reported once.
func collectTrails(ctx context.Context, cl *clients, source, region string) ([]models.Resource, error) {
	out, err := cl.CloudTrail.DescribeTrails(ctx, &cloudtrailsvc.DescribeTrailsInput{
		IncludeShadowTrails: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("describe trails in %s: %w", region, err)
	}
	res := make([]models.Resource, 0, len(out.TrailList))
	for _, t := range out.TrailList {
		res = append(res, models.Resource{
			Kind:       models.KindAWSCloudTrail,
			Name:       aws.ToString(t.Name),
			Source:     source,
			Properties: t,
		})
	}
	return res, nil
}

func collectClusters(ctx context.Context, cl *clients, source, region string) ([]models.Resource, error) {
	var out []models.Resource
	p := ekssvc.NewListClustersPaginator(cl.EKS, &ekssvc.ListClustersInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list EKS clusters in %s: %w", region, err)
		}
		for _, name := range page.Clusters {
			desc, err := cl.EKS.DescribeCluster(ctx, &ekssvc.DescribeClusterInput{Name: aws.String(name)})
			if err != nil {
				return nil, fmt.Errorf("describe EKS cluster %s: %w", name, err)
			}
			if desc.Cluster == nil {
				continue
			}
			out = append(out, models.Resource{
				Kind:       models.KindAWSEKSCluster,
				Name:       name,
				Source:     source,
				Properties: *desc.Cluster,
			})
		}
	}
	return out, nil
}

// collectDetector always yields one resource per region; an empty DetectorID
// means GuardDuty has no detector there.
func collectDetector(ctx context.Context, cl *clients, source, region string) ([]models.Resource, error) {
	list, err := cl.GuardDuty.ListDetectors(ctx, &guarddutysvc.ListDetectorsInput{})
	if err != nil {
		return nil, fmt.Errorf("list GuardDuty detectors in %s: %w", region, err)
	}

	d := models.GuardDutyDetector{Region: region}
	if len(list.DetectorIds) > 0 {
		d.DetectorID = list.DetectorIds[0]
		got, err := cl.GuardDuty.GetDetector(ctx, &guarddutysvc.GetDetectorInput{DetectorId: aws.String(d.DetectorID)})
		if err != nil {
			return nil, fmt.Errorf("get GuardDuty detector %s: %w", d.DetectorID, err)
		}
		d.Status = got.Status
	}
	return []models.Resource{{
		Kind:       models.KindAWSGuardDutyDetector,
		Name:       "guardduty/" + region,
		Source:     source,
		Properties: d,
	}}, nil
}

func collectRecorders(ctx context.Context, cl *clients, source, region string) ([]models.Resource, error) {
	out, err := cl.Config.DescribeConfigurationRecorderStatus(ctx, &configsvc.DescribeConfigurationRecorderStatusInput{})
	if err != nil {
		return nil, fmt.Errorf("describe config recorder status in %s: %w", region, err)
	}
	statuses := out.ConfigurationRecordersStatus
	if len(statuses) == 0 {
		statuses = []configtypes.ConfigurationRecorderStatus{{Name: aws.String(noRecorder)}}
	}
	res := make([]models.Resource, 0, len(statuses))
	for _, s := range statuses {
		res = append(res, models.Resource{
			Kind:       models.KindAWSConfigRecorder,
			Name:       "config/" + region + "/" + aws.ToString(s.Name),
			Source:     source,
			Properties: s,
		})
	}
	return res, nil
}
