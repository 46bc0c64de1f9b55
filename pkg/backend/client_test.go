package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/doneduardo/storefront/pkg/enums"
	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("http://baas.test/", "anon-key", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresURLAndKey(t *testing.T) {
	if _, err := NewClient(" ", "key"); !errors.Is(err, errBaseURLRequired) {
		t.Fatalf("expected url error, got %v", err)
	}
	if _, err := NewClient("http://baas.test", ""); !errors.Is(err, errAPIKeyRequired) {
		t.Fatalf("expected key error, got %v", err)
	}
}

func TestGetProductRequest(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `[{"id":"p1","name":"Cacao 70%","slug":"cacao-70","price":25.5,"stock":3,"images":["a.jpg","b.jpg"],"category":"barras"}]`), nil
	})

	product, err := client.GetProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if captured.Method != http.MethodGet {
		t.Fatalf("unexpected method %s", captured.Method)
	}
	if captured.URL.Path != "/rest/v1/products" {
		t.Fatalf("unexpected path %s", captured.URL.Path)
	}
	if got := captured.URL.Query().Get("id"); got != "eq.p1" {
		t.Fatalf("unexpected id filter %q", got)
	}
	if got := captured.URL.Query().Get("select"); got != "*" {
		t.Fatalf("unexpected select %q", got)
	}
	if captured.Header.Get("apikey") != "anon-key" || captured.Header.Get("Authorization") != "Bearer anon-key" {
		t.Fatalf("auth headers missing: %v", captured.Header)
	}
	if !product.Price.Equal(decimal.RequireFromString("25.5")) || product.Stock != 3 || len(product.Images) != 2 {
		t.Fatalf("unexpected product %+v", product)
	}
}

func TestGetProductEmptyResultIsNotFound(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `[]`), nil
	})

	_, err := client.GetProduct(context.Background(), "missing")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListProductsFilters(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		query = req.URL.Query()
		return jsonResponse(http.StatusOK, `[{"id":"p1","price":"10.00"},{"id":"p2","price":12}]`), nil
	})

	products, err := client.ListProducts(context.Background(), ProductFilter{Category: "bombones", FeaturedOnly: true, Limit: 4, Offset: 8})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if query["category"][0] != "eq.bombones" || query["is_featured"][0] != "eq.true" || query["limit"][0] != "4" || query["offset"][0] != "8" {
		t.Fatalf("unexpected query %v", query)
	}
}

func TestCreateOrderPostsProcedureArguments(t *testing.T) {
	var captured *http.Request
	var body map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"id":"ord-1","order_number":1042}`), nil
	})

	created, err := client.CreateOrder(context.Background(), CreateOrderParams{
		CustomerName:  "Ana",
		CustomerPhone: "987654321",
		Address:       "Av. Larco 123",
		City:          "Lima",
		District:      "Miraflores",
		TotalAmount:   DecimalNumber(decimal.RequireFromString("65.50")),
		PaymentMethod: enums.PaymentMethodYape,
		Items: []OrderItemInput{
			{ID: "p1", Name: "Cacao", Price: DecimalNumber(decimal.RequireFromString("25")), Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if created.ID != "ord-1" || created.OrderNumber != 1042 {
		t.Fatalf("unexpected result %+v", created)
	}
	if captured.Method != http.MethodPost || captured.URL.String() != "http://baas.test/rest/v1/rpc/create_order" {
		t.Fatalf("unexpected request %s %s", captured.Method, captured.URL)
	}
	if captured.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("expected json content type")
	}
	if body["p_payment_method"] != "YAPE" || body["p_total_amount"] != 65.5 || body["p_reference"] != "" {
		t.Fatalf("unexpected body %v", body)
	}
	items := body["p_items"].([]any)
	first := items[0].(map[string]any)
	if first["id"] != "p1" || first["price"] != float64(25) || first["quantity"] != float64(2) {
		t.Fatalf("unexpected item %v", first)
	}
}

func TestRPCNonSuccessIsDependencyError(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"message":"insufficient stock"}`), nil
	})

	_, err := client.CreateOrder(context.Background(), CreateOrderParams{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !strings.Contains(err.Error(), "insufficient stock") {
		t.Fatalf("expected upstream message in error, got %v", err)
	}
}

func TestRPCTransportErrorIsDependencyError(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	err := client.RPC(context.Background(), "ping", nil, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGetOrderDetails(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/rest/v1/rpc/get_order_details" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{
			"order":{"id":"ord-1","order_number":7,"customer_name":"Ana","total_amount":65.5,"status":"PENDIENTE_PAGO","payment_method":"YAPE"},
			"items":[{"product_name_snapshot":"Cacao","quantity":2,"unit_price_snapshot":25,"subtotal":50}]
		}`), nil
	})

	details, err := client.GetOrderDetails(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	if body["p_order_id"] != "ord-1" {
		t.Fatalf("unexpected params %v", body)
	}
	if details.Order.OrderNumber != 7 || details.Order.Status != enums.OrderStatusPendingPayment {
		t.Fatalf("unexpected order %+v", details.Order)
	}
	if details.Order.TotalAmount.StringFixed(2) != "65.50" {
		t.Fatalf("unexpected total %s", details.Order.TotalAmount)
	}
	if len(details.Items) != 1 || details.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", details.Items)
	}
}

func TestGetOrderDetailsNullIsNotFound(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `null`), nil
	})

	_, err := client.GetOrderDetails(context.Background(), "ord-x")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNilClientIsDependencyError(t *testing.T) {
	var client *Client
	if _, err := client.GetProduct(context.Background(), "p1"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
