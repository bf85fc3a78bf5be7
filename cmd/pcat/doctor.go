package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policies"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policy"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/providers/aws/common"
	kube "github.com/pankaj-dahiya-devops/policy-catalog/internal/providers/kubernetes"
)

// defaultPolicyFile is checked by doctor when neither --policy-file nor the
// config names one.
const defaultPolicyFile = "./pcat.yaml"

// DoctorResult is the structured output of pcat doctor. It can be serialised
// to JSON via --output=json or rendered as a human-readable table (default).
type DoctorResult struct {
	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		RegionsOK   bool   `json:"regions_ok"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	Kubernetes struct {
		KubeconfigOK bool   `json:"kubeconfig_ok"`
		Context      string `json:"context,omitempty"`
		APIReachable bool   `json:"api_reachable"`
		Error        string `json:"error,omitempty"`
	} `json:"kubernetes"`

	Policy struct {
		Path    string   `json:"path"`
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"policy"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd(a *app) *cobra.Command {
	var format, profile, policyFile string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run environment diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if profile == "" {
				profile = a.cfg.AWS.DefaultProfile
			}
			if policyFile == "" {
				policyFile = a.cfg.Policy.File
			}
			if policyFile == "" {
				policyFile = defaultPolicyFile
			}
			result, err := runDoctor(
				cmd.Context(),
				a.aws,
				a.newKube(a.cfg.Kubernetes.Kubeconfig),
				cmd.OutOrStdout(),
				resolveFormat(format, a),
				profile,
				policyFile,
			)
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				return &exitError{code: 1, reason: "environment unhealthy"}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "", `Output format: "table" or "json"`)
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile to use (default: credential chain)")
	cmd.Flags().StringVar(&policyFile, "policy-file", "", "Policy file to validate (default: ./pcat.yaml)")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures; callers must inspect
// result.OverallHealthy to decide the exit code.
func runDoctor(ctx context.Context, awsProvider common.AWSClientProvider, kubeProvider kube.KubeClientProvider, w io.Writer, format, profile, policyFile string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, awsProvider, kubeProvider, profile, policyFile)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering; callers decide how to present the result.
func collectDoctorResult(ctx context.Context, awsProvider common.AWSClientProvider, kubeProvider kube.KubeClientProvider, profile, policyFile string) DoctorResult {
	var result DoctorResult

	// AWS: credentials, STS account ID, region discovery.
	result.AWS.Profile = profile
	profileCfg, err := awsProvider.LoadProfile(ctx, profile)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = profileCfg.AccountID
		if _, err := awsProvider.GetActiveRegions(ctx, profileCfg); err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.RegionsOK = true
		}
	}

	// Kubernetes: kubeconfig, context, API reachability check.
	clientset, info, err := kubeProvider.ClientsetForContext("")
	if err != nil {
		result.Kubernetes.Error = err.Error()
	} else {
		result.Kubernetes.KubeconfigOK = true
		result.Kubernetes.Context = info.ContextName
		if _, err := clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1}); err != nil {
			result.Kubernetes.Error = err.Error()
		} else {
			result.Kubernetes.APIReachable = true
		}
	}

	// Policy: stat, load, validate (file is optional).
	result.Policy.Path = policyFile
	_, statErr := os.Stat(policyFile)
	switch {
	case statErr == nil:
		result.Policy.Present = true
		cfg, loadErr := policy.LoadPolicy(policyFile)
		if loadErr != nil {
			result.Policy.Errors = []string{loadErr.Error()}
			break
		}
		errs := policy.Validate(cfg, policies.NewRegistry())
		if len(errs) == 0 {
			result.Policy.Valid = true
		}
		for _, e := range errs {
			result.Policy.Errors = append(result.Policy.Errors, e.Error())
		}
	case !errors.Is(statErr, fs.ErrNotExist):
		// Present but unreadable.
		result.Policy.Present = true
		result.Policy.Errors = []string{statErr.Error()}
	}

	// Either provider is enough to scan; both failing is unhealthy.
	awsOK := result.AWS.Credentials && result.AWS.RegionsOK
	kubeOK := result.Kubernetes.KubeconfigOK && result.Kubernetes.APIReachable
	result.OverallHealthy = (awsOK || kubeOK) && (!result.Policy.Present || result.Policy.Valid)

	return result
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "OK", "")
		} else {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
		}
	}

	fmt.Fprintln(w, "\nKubernetes:")
	if !result.Kubernetes.KubeconfigOK {
		doctorPrint(w, "Kubeconfig", "FAIL", result.Kubernetes.Error)
		doctorPrint(w, "Current Context", "FAIL", "skipped")
		doctorPrint(w, "API Reachable", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Kubeconfig", "OK", "")
		doctorPrint(w, "Current Context", "OK", result.Kubernetes.Context)
		if result.Kubernetes.APIReachable {
			doctorPrint(w, "API Reachable", "OK", "")
		} else {
			doctorPrint(w, "API Reachable", "FAIL", result.Kubernetes.Error)
		}
	}

	fmt.Fprintf(w, "\nPolicy (%s):\n", result.Policy.Path)
	if !result.Policy.Present {
		doctorPrint(w, "Present", "Not found (optional)", "")
		return
	}
	doctorPrint(w, "Present", "YES", "")
	if result.Policy.Valid {
		doctorPrint(w, "Valid", "OK", "")
		return
	}
	for _, e := range result.Policy.Errors {
		doctorPrint(w, "Valid", "FAIL", e)
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
