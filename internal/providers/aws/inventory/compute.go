package inventory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

func collectInstances(ctx context.Context, cl *clients, source, region string) ([]models.Resource, error) {
	var out []models.Resource
	p := ec2svc.NewDescribeInstancesPaginator(cl.EC2, &ec2svc.DescribeInstancesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe instances in %s: %w", region, err)
		}
		for _, r := range page.Reservations {
			for _, inst := range r.Instances {
				out = append(out, models.Resource{
					Kind:       models.KindAWSEC2Instance,
					Name:       aws.ToString(inst.InstanceId),
					Source:     source,
					Properties: inst,
				})
			}
		}
	}
	return out, nil
}

func collectVolumes(ctx context.Context, cl *clients, source, region string) ([]models.Resource, error) {
	var out []models.Resource
	p := ec2svc.NewDescribeVolumesPaginator(cl.EC2, &ec2svc.DescribeVolumesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe volumes in %s: %w", region, err)
		}
		for _, v := range page.Volumes {
			out = append(out, models.Resource{
				Kind:       models.KindAWSEBSVolume,
				Name:       aws.ToString(v.VolumeId),
				Source:     source,
				Properties: v,
			})
		}
	}
	return out, nil
}

func collectSecurityGroups(ctx context.Context, cl *clients, source, region string) ([]models.Resource, error) {
	var out []models.Resource
	p := ec2svc.NewDescribeSecurityGroupsPaginator(cl.EC2, &ec2svc.DescribeSecurityGroupsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe security groups in %s: %w", region, err)
		}
		for _, sg := range page.SecurityGroups {
			out = append(out, models.Resource{
				Kind:       models.KindAWSSecurityGroup,
				Name:       aws.ToString(sg.GroupId),
				Source:     source,
				Properties: sg,
			})
		}
	}
	return out, nil
}
