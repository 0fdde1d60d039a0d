package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/shopspring/decimal"
)

type apiTests []apiTest

type apiTest struct {
	name             string
	path             string
	method           string
	body             []byte
	setNodeMethods   func(n *mockNode)
	statusCode       int
	expectedResponse func() ([]byte, error)
	checkResponse    func(t *testing.T, body []byte)
}

func newMockNode() *mockNode {
	return &mockNode{
		quoteFunc: func(ctx context.Context, direction models.Direction) decimal.Decimal {
			if direction == models.DirectionBuy {
				return decimal.NewFromInt(1530)
			}
			return decimal.NewFromInt(1492)
		},
		activeTransactionsFunc: func() int { return 0 },
	}
}

func runAPITests(t *testing.T, config *GatewayConfig, tests apiTests) {
	node := newMockNode()
	gateway := &Gateway{
		node:   node,
		config: config,
		hub:    newHub(),
	}
	go gateway.hub.run()
	defer gateway.hub.stop()

	ts := httptest.NewServer(gateway.newV1Router())
	defer ts.Close()

	for _, test := range tests {
		if test.setNodeMethods != nil {
			test.setNodeMethods(node)
		}
		req, err := http.NewRequest(test.method, fmt.Sprintf("%s%s", ts.URL, test.path), bytes.NewReader(test.body))
		if err != nil {
			t.Fatal(err)
		}
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		if res.StatusCode != test.statusCode {
			t.Errorf("%s. Expected status code %d, got %d", test.name, test.statusCode, res.StatusCode)
			res.Body.Close()
			continue
		}
		response, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			t.Fatal(err)
		}
		if test.checkResponse != nil {
			test.checkResponse(t, response)
		}
		if test.expectedResponse == nil {
			continue
		}
		expected, err := test.expectedResponse()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(response, expected) {
			t.Errorf("%s: Expected response %s, got %s", test.name, string(expected), string(response))
			continue
		}
	}
}
