package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sampleRequest  = "GET /api/items HTTP/1.1\r\nHost: example.com\r\nAccept: */*\r\n\r\n"
	sampleResponse = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n{\"ok\":true}"
)

func TestScoreRequestPrefersRequestText(t *testing.T) {
	assert.Greater(t, ScoreRequest(sampleRequest), ScoreRequest(sampleResponse))
	assert.Greater(t, ScoreRequest(sampleRequest), ScoreRequest("just some label text"))
}

func TestScoreResponsePrefersResponseText(t *testing.T) {
	assert.Greater(t, ScoreResponse(sampleResponse), ScoreResponse(sampleRequest))
	assert.Greater(t, ScoreResponse(sampleResponse), ScoreResponse("just some label text"))
}

func TestScoreRequestPenalizesStatusLinePrefix(t *testing.T) {
	// A response body quoting a request line must not outscore the real thing
	quoted := "HTTP/1.1 200 OK\r\n\r\nGET /echo HTTP/1.1 was received"
	assert.Greater(t, ScoreRequest(sampleRequest), ScoreRequest(quoted))
}

func TestScoreRecognizesAllMethods(t *testing.T) {
	for _, method := range []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS", "PATCH", "TRACE", "CONNECT"} {
		text := method + " / HTTP/1.1"
		assert.GreaterOrEqual(t, ScoreRequest(text), 200, "method: %s", method)
	}

	// Methods are case-sensitive on the wire
	assert.Less(t, ScoreRequest("get / HTTP/1.1"), 200)
}

func TestLengthBonusCaps(t *testing.T) {
	huge := make([]byte, 100_000)
	for i := range huge {
		huge[i] = 'x'
	}
	assert.Equal(t, lengthBonusCap, lengthBonus(string(huge)))
}

func TestFindRequestText(t *testing.T) {
	tree := &Container{Child: []Node{
		&Label{Content: "Interceptor"},
		&TextArea{Content: sampleResponse},
		&TextArea{Content: sampleRequest},
		&Label{Content: "   "},
	}}

	text, found := FindRequestText(tree)
	require.True(t, found)
	// CollectText trims leaf content, so the expectation does too
	assert.Equal(t, strings.TrimSpace(sampleRequest), text)
}

func TestFindResponseText(t *testing.T) {
	tree := &Container{Child: []Node{
		&TextArea{Content: sampleRequest},
		&Container{Child: []Node{
			&TextArea{Content: sampleResponse},
		}},
	}}

	text, found := FindResponseText(tree)
	require.True(t, found)
	assert.Equal(t, sampleResponse, text)
}

func TestFindRequestTextEmptyTree(t *testing.T) {
	_, found := FindRequestText(&Container{})
	assert.False(t, found)

	_, found = FindRequestText(&Container{Child: []Node{
		&Label{Content: ""},
		&Label{Content: "  \n "},
	}})
	assert.False(t, found)
}

func TestPickBestTiesGoFirst(t *testing.T) {
	best, ok := pickBest([]string{"aaa", "bbb", "ccc"}, func(string) int { return 7 })
	require.True(t, ok)
	assert.Equal(t, "aaa", best)
}

func TestCollectTextOrderAndTrim(t *testing.T) {
	tree := &Container{Child: []Node{
		&Label{Content: "  first  "},
		&Container{Child: []Node{&TextArea{Content: "second"}}},
		&Label{Content: "third"},
	}}

	assert.Equal(t, []string{"first", "second", "third"}, CollectText(tree))
}
