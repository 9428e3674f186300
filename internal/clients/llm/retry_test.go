package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJSONClient struct {
	Client
	responses []map[string]interface{}
	calls     int
}

func (f *fakeJSONClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]interface{}) (map[string]interface{}, error) {
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func TestGenerateJSONWithFeedback_SucceedsAfterRetry(t *testing.T) {
	fake := &fakeJSONClient{responses: []map[string]interface{}{
		{"title": ""},
		{"title": "valid"},
	}}
	validate := func(m map[string]interface{}) error {
		if m["title"] == "" {
			return errors.New("title is empty")
		}
		return nil
	}
	result, err := GenerateJSONWithFeedback(context.Background(), fake, "sys", "user", "schema", nil, 2, validate)
	require.NoError(t, err)
	assert.Equal(t, "valid", result["title"])
	assert.Equal(t, 2, fake.calls)
}

func TestGenerateJSONWithFeedback_FailsAfterExhaustingRetries(t *testing.T) {
	fake := &fakeJSONClient{responses: []map[string]interface{}{
		{"title": ""}, {"title": ""}, {"title": ""},
	}}
	validate := func(m map[string]interface{}) error {
		if m["title"] == "" {
			return errors.New("title is empty")
		}
		return nil
	}
	_, err := GenerateJSONWithFeedback(context.Background(), fake, "sys", "user", "schema", nil, 2, validate)
	require.Error(t, err)
	assert.Equal(t, 3, fake.calls)
}
