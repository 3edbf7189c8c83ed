// Package endpoint wraps the Bedrock AgentCore control plane for managing
// named runtime endpoints. Each operation is a single synchronous call with a
// direct request/response mapping; provider errors are classified into
// one-line diagnostics and returned so the CLI can exit non-zero.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	smithy "github.com/aws/smithy-go"
)

// API mirrors the subset of the AgentCore control-plane client the manager
// uses. It matches *bedrockagentcorecontrol.Client so callers can pass either
// the real client or a fake in tests.
type API interface {
	CreateAgentRuntimeEndpoint(ctx context.Context, params *bedrockagentcorecontrol.CreateAgentRuntimeEndpointInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.CreateAgentRuntimeEndpointOutput, error)
	UpdateAgentRuntimeEndpoint(ctx context.Context, params *bedrockagentcorecontrol.UpdateAgentRuntimeEndpointInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.UpdateAgentRuntimeEndpointOutput, error)
	GetAgentRuntimeEndpoint(ctx context.Context, params *bedrockagentcorecontrol.GetAgentRuntimeEndpointInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.GetAgentRuntimeEndpointOutput, error)
	ListAgentRuntimeEndpoints(ctx context.Context, params *bedrockagentcorecontrol.ListAgentRuntimeEndpointsInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.ListAgentRuntimeEndpointsOutput, error)
	DeleteAgentRuntimeEndpoint(ctx context.Context, params *bedrockagentcorecontrol.DeleteAgentRuntimeEndpointInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.DeleteAgentRuntimeEndpointOutput, error)
	TagResource(ctx context.Context, params *bedrockagentcorecontrol.TagResourceInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.TagResourceOutput, error)
}

// Manager executes endpoint lifecycle operations and prints human-readable
// results to out.
type Manager struct {
	api API
	out io.Writer
}

// NewManager builds a manager over an existing control-plane client.
func NewManager(api API, out io.Writer) *Manager {
	return &Manager{api: api, out: out}
}

// NewManagerForRegion resolves AWS credentials from the default chain and
// builds a manager for the given region.
func NewManagerForRegion(ctx context.Context, region string, out io.Writer) (*Manager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewManager(bedrockagentcorecontrol.NewFromConfig(cfg), out), nil
}

// CreateParams describes a create operation.
type CreateParams struct {
	RuntimeID   string
	Name        string
	Version     string
	Description string
	Tags        map[string]string
}

// Create registers a new endpoint for an agent runtime. When tags are given
// they are applied to the created endpoint ARN in a follow-up TagResource
// call, since the create call itself does not accept tags.
func (m *Manager) Create(ctx context.Context, p CreateParams) error {
	fmt.Fprintf(m.out, "Creating endpoint '%s'...\n", p.Name)

	input := &bedrockagentcorecontrol.CreateAgentRuntimeEndpointInput{
		AgentRuntimeId: aws.String(p.RuntimeID),
		Name:           aws.String(p.Name),
	}
	if p.Version != "" {
		input.AgentRuntimeVersion = aws.String(p.Version)
		fmt.Fprintf(m.out, "  Target Version: %s\n", p.Version)
	} else {
		fmt.Fprintln(m.out, "  Target Version: Latest")
	}
	if p.Description != "" {
		input.Description = aws.String(p.Description)
	}

	resp, err := m.api.CreateAgentRuntimeEndpoint(ctx, input)
	if err != nil {
		return m.classify(err, p.Name)
	}

	fmt.Fprintln(m.out, "\n✓ Endpoint created successfully!")
	fmt.Fprintf(m.out, "  Endpoint Name: %s\n", p.Name)
	fmt.Fprintf(m.out, "  Status: %s\n", resp.Status)
	fmt.Fprintf(m.out, "  Target Version: %s\n", orDefault(resp.TargetVersion, "Latest"))
	fmt.Fprintf(m.out, "  Endpoint ARN: %s\n", aws.ToString(resp.AgentRuntimeEndpointArn))
	if resp.CreatedAt != nil {
		fmt.Fprintf(m.out, "  Created At: %s\n", resp.CreatedAt)
	}

	if len(p.Tags) > 0 && resp.AgentRuntimeEndpointArn != nil {
		_, err := m.api.TagResource(ctx, &bedrockagentcorecontrol.TagResourceInput{
			ResourceArn: resp.AgentRuntimeEndpointArn,
			Tags:        p.Tags,
		})
		if err != nil {
			return m.classify(err, p.Name)
		}
		fmt.Fprintf(m.out, "  Tags applied: %d\n", len(p.Tags))
	}
	return nil
}

// Update points an existing endpoint at a specific runtime version.
func (m *Manager) Update(ctx context.Context, runtimeID, name, version string) error {
	fmt.Fprintf(m.out, "Updating endpoint '%s' to version %s...\n", name, version)

	resp, err := m.api.UpdateAgentRuntimeEndpoint(ctx, &bedrockagentcorecontrol.UpdateAgentRuntimeEndpointInput{
		AgentRuntimeId:      aws.String(runtimeID),
		EndpointName:        aws.String(name),
		AgentRuntimeVersion: aws.String(version),
	})
	if err != nil {
		return m.classify(err, name)
	}

	fmt.Fprintln(m.out, "\n✓ Endpoint update initiated successfully!")
	fmt.Fprintf(m.out, "  Status: %s\n", resp.Status)
	fmt.Fprintf(m.out, "  Live Version: %s\n", orDefault(resp.LiveVersion, "N/A"))
	fmt.Fprintf(m.out, "  Target Version: %s\n", orDefault(resp.TargetVersion, "N/A"))
	if resp.LastUpdatedAt != nil {
		fmt.Fprintf(m.out, "  Last Updated: %s\n", resp.LastUpdatedAt)
	}
	return nil
}

// Get prints the details of a single endpoint.
func (m *Manager) Get(ctx context.Context, runtimeID, name string) error {
	resp, err := m.api.GetAgentRuntimeEndpoint(ctx, &bedrockagentcorecontrol.GetAgentRuntimeEndpointInput{
		AgentRuntimeId: aws.String(runtimeID),
		EndpointName:   aws.String(name),
	})
	if err != nil {
		return m.classify(err, name)
	}

	divider := strings.Repeat("-", 80)
	fmt.Fprintln(m.out, "\nEndpoint Details:")
	fmt.Fprintln(m.out, divider)
	fmt.Fprintf(m.out, "  Name: %s\n", aws.ToString(resp.Name))
	fmt.Fprintf(m.out, "  Status: %s\n", resp.Status)
	fmt.Fprintf(m.out, "  Live Version: %s\n", orDefault(resp.LiveVersion, "N/A"))
	fmt.Fprintf(m.out, "  Target Version: %s\n", orDefault(resp.TargetVersion, "N/A"))
	fmt.Fprintf(m.out, "  Description: %s\n", orDefault(resp.Description, "N/A"))
	if resp.CreatedAt != nil {
		fmt.Fprintf(m.out, "  Created At: %s\n", resp.CreatedAt)
	}
	if resp.LastUpdatedAt != nil {
		fmt.Fprintf(m.out, "  Last Updated: %s\n", resp.LastUpdatedAt)
	}
	fmt.Fprintf(m.out, "  Endpoint ARN: %s\n", aws.ToString(resp.AgentRuntimeEndpointArn))
	fmt.Fprintln(m.out, divider)
	return nil
}

// List prints every endpoint of an agent runtime. An empty list is success.
func (m *Manager) List(ctx context.Context, runtimeID string) error {
	resp, err := m.api.ListAgentRuntimeEndpoints(ctx, &bedrockagentcorecontrol.ListAgentRuntimeEndpointsInput{
		AgentRuntimeId: aws.String(runtimeID),
	})
	if err != nil {
		fmt.Fprintf(m.out, "✗ Error listing endpoints: %v\n", err)
		return err
	}

	if len(resp.RuntimeEndpoints) == 0 {
		fmt.Fprintf(m.out, "\nNo endpoints found for %s\n", runtimeID)
		return nil
	}

	fmt.Fprintf(m.out, "\nEndpoints for %s:\n", runtimeID)
	fmt.Fprintln(m.out, strings.Repeat("=", 80))
	for _, ep := range resp.RuntimeEndpoints {
		fmt.Fprintf(m.out, "  Name: %s\n", aws.ToString(ep.Name))
		fmt.Fprintf(m.out, "  Status: %s\n", ep.Status)
		fmt.Fprintf(m.out, "  Live Version: %s\n", orDefault(ep.LiveVersion, "N/A"))
		fmt.Fprintf(m.out, "  Target Version: %s\n", orDefault(ep.TargetVersion, "N/A"))
		if desc := aws.ToString(ep.Description); desc != "" {
			fmt.Fprintf(m.out, "  Description: %s\n", desc)
		}
		fmt.Fprintln(m.out, strings.Repeat("-", 80))
	}
	return nil
}

// Delete initiates removal of an endpoint.
func (m *Manager) Delete(ctx context.Context, runtimeID, name string) error {
	fmt.Fprintf(m.out, "Deleting endpoint '%s'...\n", name)

	resp, err := m.api.DeleteAgentRuntimeEndpoint(ctx, &bedrockagentcorecontrol.DeleteAgentRuntimeEndpointInput{
		AgentRuntimeId: aws.String(runtimeID),
		EndpointName:   aws.String(name),
	})
	if err != nil {
		return m.classify(err, name)
	}

	status := string(resp.Status)
	if status == "" {
		status = "DELETING"
	}
	fmt.Fprintln(m.out, "✓ Endpoint deletion initiated")
	fmt.Fprintf(m.out, "  Status: %s\n", status)
	return nil
}

// classify maps provider exceptions to one-line diagnostics and returns the
// original error so callers exit non-zero.
func (m *Manager) classify(err error, name string) error {
	var conflict *types.ConflictException
	var notFound *types.ResourceNotFoundException
	var validation *types.ValidationException
	var apiErr smithy.APIError

	switch {
	case errors.As(err, &conflict):
		fmt.Fprintf(m.out, "✗ Error: Endpoint '%s' already exists\n", name)
	case errors.As(err, &notFound):
		fmt.Fprintln(m.out, "✗ Error: Agent runtime or endpoint not found")
	case errors.As(err, &validation):
		fmt.Fprintf(m.out, "✗ Validation Error: %s\n", validation.ErrorMessage())
	case errors.As(err, &apiErr):
		fmt.Fprintf(m.out, "✗ Error: %s: %s\n", apiErr.ErrorCode(), apiErr.ErrorMessage())
	default:
		fmt.Fprintf(m.out, "✗ Error: %v\n", err)
	}
	return err
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
