// Package transport provides the collaborators the auth widget submits
// through: a GraphQL client for a remote auth service and an in-process
// backend built on the user repository.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"github.com/nfrund/yauth/internal/authflow"
)

// ErrUnknownOperation is returned for operations outside the three flows.
var ErrUnknownOperation = errors.New("unknown operation")

// inputTypes maps each operation to the GraphQL input type of its params.
var inputTypes = map[string]string{
	authflow.OpLogin:          "LoginInput",
	authflow.OpSignup:         "SignUpInput",
	authflow.OpForgotPassword: "ForgotPasswordInput",
}

// MutationDocument returns the mutation sent for operation.
func MutationDocument(operation string) (string, error) {
	input, ok := inputTypes[operation]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}
	return fmt.Sprintf(
		"mutation %[1]s($params: %[2]s!) { %[1]s(params: $params) { message } }",
		operation, input,
	), nil
}

// GraphQLClient executes the widget's mutations against a GraphQL endpoint.
// Errors are tagged the way GraphQL clients usually surface them:
// "[GraphQL] ..." for errors returned by the server and "[Network] ..." for
// failures reaching it.
type GraphQLClient struct {
	client  *graphql.Client
	headers http.Header
}

type graphQLOptions struct {
	httpClient *http.Client
	headers    http.Header
}

// GraphQLOption configures a GraphQLClient.
type GraphQLOption func(*graphQLOptions)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) GraphQLOption {
	return func(o *graphQLOptions) { o.httpClient = c }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) GraphQLOption {
	return func(o *graphQLOptions) { o.headers.Add(key, value) }
}

// NewGraphQLClient creates a client for endpoint.
func NewGraphQLClient(endpoint string, opts ...GraphQLOption) *GraphQLClient {
	o := &graphQLOptions{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &GraphQLClient{
		client:  graphql.NewClient(endpoint, graphql.WithHTTPClient(o.httpClient)),
		headers: o.headers,
	}
}

// Execute implements authflow.Transport.
func (g *GraphQLClient) Execute(ctx context.Context, operation string, params map[string]string) (*authflow.Payload, error) {
	doc, err := MutationDocument(operation)
	if err != nil {
		return nil, err
	}

	req := graphql.NewRequest(doc)
	req.Var("params", params)
	for k, vs := range g.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	var data map[string]*authflow.Payload
	runErr := g.client.Run(ctx, req, &data)
	if payload := data[operation]; payload != nil {
		return payload, nil
	}
	if runErr != nil {
		return nil, tagError(runErr)
	}
	// Neither data nor errors: the caller treats this as malformed.
	return nil, nil
}

var non200Status = regexp.MustCompile(`non-200 status code: (\d+)`)

// tagError marks err as a server-side GraphQL error or a network failure.
func tagError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("[Network] %w", err)
	}
	msg := err.Error()
	if m := non200Status.FindStringSubmatch(msg); m != nil {
		code, _ := strconv.Atoi(m[1])
		return fmt.Errorf("[Network] %s", http.StatusText(code))
	}
	if rest, ok := strings.CutPrefix(msg, "graphql: "); ok {
		return fmt.Errorf("[GraphQL] %s", rest)
	}
	return fmt.Errorf("[Network] %w", err)
}
