package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/christophergentle/circalendar/internal/panel"
)

// InvokeAPI is the subset of the Lambda client used by LambdaNavigator
type InvokeAPI interface {
	Invoke(ctx context.Context, params *awslambda.InvokeInput, optFns ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error)
}

// NavigationPayload is the event sent to the host's navigation function
type NavigationPayload struct {
	Action string          `json:"action"`
	Range  panel.TimeRange `json:"range"`
}

// LambdaNavigator asks the host to change its time range by invoking the
// host's navigation function asynchronously
type LambdaNavigator struct {
	client       InvokeAPI
	functionName string
}

// NewLambdaNavigator creates a navigator invoking functionName
func NewLambdaNavigator(client InvokeAPI, functionName string) *LambdaNavigator {
	return &LambdaNavigator{
		client:       client,
		functionName: functionName,
	}
}

// SetTimeRange invokes the navigation function with r
func (n *LambdaNavigator) SetTimeRange(ctx context.Context, r panel.TimeRange) error {
	payloadBytes, err := json.Marshal(NavigationPayload{
		Action: "setTimeRange",
		Range:  r,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal navigation payload: %w", err)
	}

	out, err := n.client.Invoke(ctx, &awslambda.InvokeInput{
		FunctionName:   aws.String(n.functionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payloadBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", n.functionName, err)
	}
	if out.FunctionError != nil {
		return fmt.Errorf("navigation function %s failed: %s", n.functionName, *out.FunctionError)
	}

	log.Printf("Sent time range %s to %s", r, n.functionName)
	return nil
}
