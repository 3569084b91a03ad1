package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nfrund/yauth/internal/authflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationDocument(t *testing.T) {
	doc, err := MutationDocument(authflow.OpSignup)
	require.NoError(t, err)
	assert.Equal(t, "mutation signup($params: SignUpInput!) { signup(params: $params) { message } }", doc)

	_, err = MutationDocument("deleteEverything")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

type sentRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func graphQLServer(t *testing.T, status int, body string, seen *sentRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGraphQLClient_Execute(t *testing.T) {
	params := map[string]string{"email": "a@b.com", "password": "pw"}

	t.Run("data", func(t *testing.T) {
		var seen sentRequest
		srv := graphQLServer(t, http.StatusOK, `{"data":{"login":{"message":"Welcome back"}}}`, &seen)

		payload, err := NewGraphQLClient(srv.URL).Execute(context.Background(), authflow.OpLogin, params)
		require.NoError(t, err)
		assert.Equal(t, &authflow.Payload{Message: "Welcome back"}, payload)
		assert.Contains(t, seen.Query, "mutation login($params: LoginInput!)")
		assert.Equal(t, map[string]any{"email": "a@b.com", "password": "pw"}, seen.Variables["params"])
	})

	t.Run("graphql error", func(t *testing.T) {
		srv := graphQLServer(t, http.StatusOK, `{"data":null,"errors":[{"message":"invalid credentials"}]}`, nil)

		payload, err := NewGraphQLClient(srv.URL).Execute(context.Background(), authflow.OpLogin, params)
		assert.Nil(t, payload)
		require.Error(t, err)
		assert.Equal(t, "[GraphQL] invalid credentials", err.Error())
		assert.Equal(t, "invalid credentials", authflow.FormatErrorMessage(err))
	})

	t.Run("data wins over errors", func(t *testing.T) {
		srv := graphQLServer(t, http.StatusOK, `{"data":{"login":{"message":"Welcome back"}},"errors":[{"message":"partial"}]}`, nil)

		payload, err := NewGraphQLClient(srv.URL).Execute(context.Background(), authflow.OpLogin, params)
		require.NoError(t, err)
		assert.Equal(t, "Welcome back", payload.Message)
	})

	t.Run("graphql error with colon keeps the sentence", func(t *testing.T) {
		srv := graphQLServer(t, http.StatusOK, `{"errors":[{"message":"user not found: a@b.com"}]}`, nil)

		_, err := NewGraphQLClient(srv.URL).Execute(context.Background(), authflow.OpLogin, params)
		require.Error(t, err)
		assert.Equal(t, "[GraphQL] user not found: a@b.com", err.Error())
		assert.Equal(t, "user not found: a@b.com", authflow.FormatErrorMessage(err))
	})

	t.Run("neither data nor errors", func(t *testing.T) {
		srv := graphQLServer(t, http.StatusOK, `{"data":{}}`, nil)

		payload, err := NewGraphQLClient(srv.URL).Execute(context.Background(), authflow.OpLogin, params)
		assert.Nil(t, payload)
		assert.NoError(t, err)
	})

	t.Run("http failure without body", func(t *testing.T) {
		srv := graphQLServer(t, http.StatusBadGateway, `<html>bad gateway</html>`, nil)

		_, err := NewGraphQLClient(srv.URL).Execute(context.Background(), authflow.OpLogin, params)
		require.Error(t, err)
		assert.Equal(t, "[Network] Bad Gateway", err.Error())
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		srv := graphQLServer(t, http.StatusOK, `{}`, nil)
		url := srv.URL
		srv.Close()

		_, err := NewGraphQLClient(url).Execute(context.Background(), authflow.OpLogin, params)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "[Network]")
	})

	t.Run("custom headers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tenant-1", r.Header.Get("X-Tenant"))
			_, _ = w.Write([]byte(`{"data":{"forgotPassword":{"message":"sent"}}}`))
		}))
		defer srv.Close()

		client := NewGraphQLClient(srv.URL, WithHeader("X-Tenant", "tenant-1"), WithHTTPClient(srv.Client()))
		payload, err := client.Execute(context.Background(), authflow.OpForgotPassword, map[string]string{"email": "a@b.com"})
		require.NoError(t, err)
		assert.Equal(t, "sent", payload.Message)
	})
}

func TestGraphQLClient_DrivesController(t *testing.T) {
	srv := graphQLServer(t, http.StatusOK, `{"errors":[{"message":"wrapped: invalid credentials"}]}`, nil)
	c := authflow.NewController(authflow.OpLogin, NewGraphQLClient(srv.URL), nil)

	state, applied, err := c.Submit(context.Background(), authflow.FieldSetOf("email", "a@b.com", "password", "pw"))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, authflow.Failed("invalid credentials"), state)
}
