// Package deploy submits a synthesized template to CloudFormation through
// change sets and reads deployed stack state back.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/unleashedlab/sitestack"
	"github.com/unleashedlab/sitestack/internal/template"
)

var (
	// ErrStackNeedsDeletion is returned for a stack left in
	// ROLLBACK_COMPLETE, which CloudFormation cannot update.
	ErrStackNeedsDeletion = errors.New("stack is in ROLLBACK_COMPLETE and must be deleted before redeploying")
	// ErrStackBusy is returned when another operation is in progress.
	ErrStackBusy = errors.New("stack has an operation in progress")
	// ErrStackNotFound is returned by read operations on a missing stack.
	ErrStackNotFound = errors.New("stack does not exist")
)

// DefaultTimeout bounds each wait.
const DefaultTimeout = 60 * time.Minute

// MaxTemplateBody is the largest template CloudFormation accepts inline.
const MaxTemplateBody = 51200

// CloudFormationAPI is the subset of the CloudFormation client used here.
type CloudFormationAPI interface {
	cloudformation.DescribeStacksAPIClient
	cloudformation.DescribeChangeSetAPIClient
	CreateChangeSet(ctx context.Context, params *cloudformation.CreateChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateChangeSetOutput, error)
	ExecuteChangeSet(ctx context.Context, params *cloudformation.ExecuteChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ExecuteChangeSetOutput, error)
	DeleteChangeSet(ctx context.Context, params *cloudformation.DeleteChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteChangeSetOutput, error)
	DescribeStackEvents(ctx context.Context, params *cloudformation.DescribeStackEventsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error)
	DescribeStackResource(ctx context.Context, params *cloudformation.DescribeStackResourceInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackResourceOutput, error)
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	GetTemplate(ctx context.Context, params *cloudformation.GetTemplateInput, optFns ...func(*cloudformation.Options)) (*cloudformation.GetTemplateOutput, error)
}

// Deployer runs deployments against one account and region.
type Deployer struct {
	CFN CloudFormationAPI
	Log zerolog.Logger
	// PollDelay overrides the waiters' minimum delay when set
	PollDelay time.Duration
	// Timeout overrides DefaultTimeout
	Timeout time.Duration
}

// DeployInput describes one deployment.
type DeployInput struct {
	StackName    string
	Template     *sitestack.Template
	Tags         map[string]string
	Capabilities []types.Capability
}

// StackOutput is one stack output.
type StackOutput struct {
	Value  string `json:"value"`
	Export string `json:"export,omitempty"`
}

// Deploy creates or updates the stack through a change set and waits for
// it to finish.
func (d *Deployer) Deploy(ctx context.Context, in DeployInput) (*sitestack.DeployResult, error) {
	body, err := template.ToJSON(in.Template)
	if err != nil {
		return nil, err
	}
	if len(body) > MaxTemplateBody {
		return nil, fmt.Errorf("template is %d bytes, over the %d byte inline limit", len(body), MaxTemplateBody)
	}

	changeSetType, err := d.changeSetType(ctx, in.StackName)
	if err != nil {
		return nil, err
	}

	result := &sitestack.DeployResult{
		StackName: in.StackName,
		ChangeSet: "sitestack-" + uuid.NewString(),
	}
	started := time.Now()

	created, err := d.CFN.CreateChangeSet(ctx, &cloudformation.CreateChangeSetInput{
		StackName:     aws.String(in.StackName),
		ChangeSetName: aws.String(result.ChangeSet),
		ChangeSetType: changeSetType,
		TemplateBody:  aws.String(string(body)),
		Tags:          stackTags(in.Tags),
		Capabilities:  in.Capabilities,
		Description:   aws.String("Created by sitestack deploy"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating change set: %w", err)
	}
	result.StackID = aws.ToString(created.StackId)
	d.Log.Info().Str("stack", in.StackName).Str("changeSet", result.ChangeSet).Str("type", string(changeSetType)).Msg("change set created")

	changeSetID := aws.ToString(created.Id)
	describe := &cloudformation.DescribeChangeSetInput{
		StackName:     aws.String(in.StackName),
		ChangeSetName: aws.String(changeSetID),
	}

	waiter := cloudformation.NewChangeSetCreateCompleteWaiter(d.CFN, func(o *cloudformation.ChangeSetCreateCompleteWaiterOptions) {
		o.MinDelay, o.MaxDelay = d.delays(o.MinDelay, o.MaxDelay)
	})
	if err := waiter.Wait(ctx, describe, d.timeout()); err != nil {
		cs, derr := d.CFN.DescribeChangeSet(ctx, describe)
		if derr != nil {
			return nil, fmt.Errorf("change set %s: %w", result.ChangeSet, errors.Join(err, derr))
		}
		reason := aws.ToString(cs.StatusReason)
		if cs.Status == types.ChangeSetStatusFailed && isNoChanges(reason) {
			if _, err := d.CFN.DeleteChangeSet(ctx, &cloudformation.DeleteChangeSetInput{
				StackName:     aws.String(in.StackName),
				ChangeSetName: aws.String(changeSetID),
			}); err != nil {
				d.Log.Warn().Err(err).Str("changeSet", result.ChangeSet).Msg("could not delete empty change set")
			}
			d.Log.Info().Str("stack", in.StackName).Msg("no changes to deploy")
			result.NoChanges = true
			return d.finish(ctx, result)
		}
		return nil, fmt.Errorf("change set %s failed: %s", result.ChangeSet, reason)
	}

	if _, err := d.CFN.ExecuteChangeSet(ctx, &cloudformation.ExecuteChangeSetInput{
		StackName:          aws.String(in.StackName),
		ChangeSetName:      aws.String(changeSetID),
		ClientRequestToken: aws.String(uuid.NewString()),
	}); err != nil {
		return nil, fmt.Errorf("executing change set: %w", err)
	}
	d.Log.Info().Str("stack", in.StackName).Msg("change set executing")

	if err := d.waitForStack(ctx, in.StackName, changeSetType); err != nil {
		failures := d.failureEvents(ctx, in.StackName, started)
		if len(failures) > 0 {
			return nil, fmt.Errorf("deploying %s: %w\n%s", in.StackName, err, strings.Join(failures, "\n"))
		}
		return nil, fmt.Errorf("deploying %s: %w", in.StackName, err)
	}

	return d.finish(ctx, result)
}

func (d *Deployer) finish(ctx context.Context, result *sitestack.DeployResult) (*sitestack.DeployResult, error) {
	stack, err := d.describe(ctx, result.StackName)
	if err != nil {
		return nil, err
	}
	result.StackID = aws.ToString(stack.StackId)
	result.Status = string(stack.StackStatus)

	result.Outputs = make(map[string]string, len(stack.Outputs))
	for _, o := range stack.Outputs {
		result.Outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	d.Log.Info().Str("stack", result.StackName).Str("status", result.Status).Msg("deploy finished")
	return result, nil
}

// changeSetType picks CREATE or UPDATE from the current stack state.
func (d *Deployer) changeSetType(ctx context.Context, name string) (types.ChangeSetType, error) {
	stack, err := d.describe(ctx, name)
	if errors.Is(err, ErrStackNotFound) {
		return types.ChangeSetTypeCreate, nil
	}
	if err != nil {
		return "", err
	}

	switch status := stack.StackStatus; {
	case status == types.StackStatusReviewInProgress:
		return types.ChangeSetTypeCreate, nil
	case status == types.StackStatusRollbackComplete:
		return "", fmt.Errorf("%s: %w", name, ErrStackNeedsDeletion)
	case strings.HasSuffix(string(status), "_IN_PROGRESS"):
		return "", fmt.Errorf("%s (%s): %w", name, status, ErrStackBusy)
	default:
		return types.ChangeSetTypeUpdate, nil
	}
}

func (d *Deployer) waitForStack(ctx context.Context, name string, kind types.ChangeSetType) error {
	input := &cloudformation.DescribeStacksInput{StackName: aws.String(name)}
	if kind == types.ChangeSetTypeCreate {
		return cloudformation.NewStackCreateCompleteWaiter(d.CFN, func(o *cloudformation.StackCreateCompleteWaiterOptions) {
			o.MinDelay, o.MaxDelay = d.delays(o.MinDelay, o.MaxDelay)
		}).Wait(ctx, input, d.timeout())
	}
	return cloudformation.NewStackUpdateCompleteWaiter(d.CFN, func(o *cloudformation.StackUpdateCompleteWaiterOptions) {
		o.MinDelay, o.MaxDelay = d.delays(o.MinDelay, o.MaxDelay)
	}).Wait(ctx, input, d.timeout())
}

// failureEvents returns "<resource>: <status> <reason>" for every failed
// event since the deployment started, oldest first.
func (d *Deployer) failureEvents(ctx context.Context, name string, since time.Time) []string {
	out, err := d.CFN.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{StackName: aws.String(name)})
	if err != nil {
		d.Log.Warn().Err(err).Msg("could not read stack events")
		return nil
	}

	var failures []string
	for i := len(out.StackEvents) - 1; i >= 0; i-- {
		e := out.StackEvents[i]
		if e.Timestamp != nil && e.Timestamp.Before(since) {
			continue
		}
		if !strings.HasSuffix(string(e.ResourceStatus), "_FAILED") {
			continue
		}
		failures = append(failures, fmt.Sprintf("%s: %s %s",
			aws.ToString(e.LogicalResourceId), e.ResourceStatus, aws.ToString(e.ResourceStatusReason)))
	}
	return failures
}

// Destroy deletes the stack and waits. A missing stack is not an error.
func (d *Deployer) Destroy(ctx context.Context, name string) error {
	if _, err := d.describe(ctx, name); err != nil {
		if errors.Is(err, ErrStackNotFound) {
			d.Log.Info().Str("stack", name).Msg("stack does not exist, nothing to delete")
			return nil
		}
		return err
	}

	if _, err := d.CFN.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName:          aws.String(name),
		ClientRequestToken: aws.String(uuid.NewString()),
	}); err != nil {
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	d.Log.Info().Str("stack", name).Msg("delete started")

	waiter := cloudformation.NewStackDeleteCompleteWaiter(d.CFN, func(o *cloudformation.StackDeleteCompleteWaiterOptions) {
		o.MinDelay, o.MaxDelay = d.delays(o.MinDelay, o.MaxDelay)
	})
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)}, d.timeout()); err != nil {
		return fmt.Errorf("waiting for %s deletion: %w", name, err)
	}
	d.Log.Info().Str("stack", name).Msg("stack deleted")
	return nil
}

// Outputs returns the stack outputs keyed by output name.
func (d *Deployer) Outputs(ctx context.Context, name string) (map[string]StackOutput, error) {
	stack, err := d.describe(ctx, name)
	if err != nil {
		return nil, err
	}
	outputs := make(map[string]StackOutput, len(stack.Outputs))
	for _, o := range stack.Outputs {
		outputs[aws.ToString(o.OutputKey)] = StackOutput{
			Value:  aws.ToString(o.OutputValue),
			Export: aws.ToString(o.ExportName),
		}
	}
	return outputs, nil
}

// OutputKeys returns the output names in sorted order.
func OutputKeys(outputs map[string]StackOutput) []string {
	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DeployedTemplate returns the template the stack was last deployed with.
func (d *Deployer) DeployedTemplate(ctx context.Context, name string) (*sitestack.Template, error) {
	out, err := d.CFN.GetTemplate(ctx, &cloudformation.GetTemplateInput{
		StackName:     aws.String(name),
		TemplateStage: types.TemplateStageOriginal,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrStackNotFound)
		}
		return nil, fmt.Errorf("reading template of %s: %w", name, err)
	}
	return template.Parse([]byte(aws.ToString(out.TemplateBody)))
}

// PhysicalID returns the physical ID of a resource in the stack.
func (d *Deployer) PhysicalID(ctx context.Context, name, logicalID string) (string, error) {
	out, err := d.CFN.DescribeStackResource(ctx, &cloudformation.DescribeStackResourceInput{
		StackName:         aws.String(name),
		LogicalResourceId: aws.String(logicalID),
	})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%s/%s: %w", name, logicalID, ErrStackNotFound)
		}
		return "", fmt.Errorf("describing %s/%s: %w", name, logicalID, err)
	}
	if out.StackResourceDetail == nil || out.StackResourceDetail.PhysicalResourceId == nil {
		return "", fmt.Errorf("%s/%s has no physical ID yet", name, logicalID)
	}
	return aws.ToString(out.StackResourceDetail.PhysicalResourceId), nil
}

func (d *Deployer) describe(ctx context.Context, name string) (*types.Stack, error) {
	out, err := d.CFN.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrStackNotFound)
		}
		return nil, fmt.Errorf("describing %s: %w", name, err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrStackNotFound)
	}
	return &out.Stacks[0], nil
}

func (d *Deployer) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultTimeout
}

func (d *Deployer) delays(minDelay, maxDelay time.Duration) (time.Duration, time.Duration) {
	if d.PollDelay <= 0 {
		return minDelay, maxDelay
	}
	return d.PollDelay, max(d.PollDelay, maxDelay)
}

// isNotFound matches the ValidationError CloudFormation returns for a
// missing stack.
func isNotFound(err error) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.ErrorCode() == "ValidationError" && strings.Contains(ae.ErrorMessage(), "does not exist")
}

func isNoChanges(reason string) bool {
	return strings.Contains(reason, "didn't contain changes") ||
		strings.Contains(reason, "No updates are to be performed")
}

func stackTags(tags map[string]string) []types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}
