package app_test

import (
	"context"
	"strings"
	"testing"

	"stayfinder/internal/app"
)

func webhookRequest(params map[string]any) app.WebhookRequest {
	var req app.WebhookRequest
	req.QueryResult.QueryText = "any rooms at sunshine?"
	req.QueryResult.Parameters = params
	return req
}

func TestWebhook_AvailableRooms(t *testing.T) {
	search := app.NewSearchService(sunshineStore(), &fakeTagCache{}, settings())
	svc := app.NewWebhookService(search)

	resp := svc.Handle(context.Background(), webhookRequest(map[string]any{
		"property_id":    "Sunshine",
		"check_in_date":  "2025-12-01",
		"check_out_date": "2025-12-03",
		"guests":         float64(2), // JSON numbers decode as float64
	}))
	if !strings.Contains(resp.FulfillmentText, "1 room(s) available") {
		t.Fatalf("unexpected fulfillment: %q", resp.FulfillmentText)
	}
	if !strings.Contains(resp.FulfillmentText, "$205.00") {
		t.Fatalf("expected starting price in fulfillment: %q", resp.FulfillmentText)
	}
}

func TestWebhook_ArrayWrappedParameters(t *testing.T) {
	search := app.NewSearchService(sunshineStore(), &fakeTagCache{}, settings())
	svc := app.NewWebhookService(search)

	resp := svc.Handle(context.Background(), webhookRequest(map[string]any{
		"property_id":    []any{"Sunshine"},
		"check_in_date":  []any{"2025-12-01T12:00:00+01:00"},
		"check_out_date": []any{"2025-12-03T12:00:00+01:00"},
		"guests":         []any{float64(2)},
	}))
	if !strings.Contains(resp.FulfillmentText, "available") || strings.Contains(resp.FulfillmentText, "Sorry") {
		t.Fatalf("unexpected fulfillment: %q", resp.FulfillmentText)
	}
}

func TestWebhook_UnknownProperty(t *testing.T) {
	search := app.NewSearchService(sunshineStore(), &fakeTagCache{}, settings())
	svc := app.NewWebhookService(search)

	resp := svc.Handle(context.Background(), webhookRequest(map[string]any{
		"property_id":    "atlantis",
		"check_in_date":  "2025-12-01",
		"check_out_date": "2025-12-03",
		"guests":         float64(2),
	}))
	if !strings.Contains(resp.FulfillmentText, "couldn't find") {
		t.Fatalf("unexpected fulfillment: %q", resp.FulfillmentText)
	}
}

func TestWebhook_NoAvailability(t *testing.T) {
	search := app.NewSearchService(sunshineStore(), &fakeTagCache{}, settings())
	svc := app.NewWebhookService(search)

	resp := svc.Handle(context.Background(), webhookRequest(map[string]any{
		"property_id":    "Sunshine",
		"check_in_date":  "2025-12-01",
		"check_out_date": "2025-12-03",
		"guests":         float64(5),
	}))
	if !strings.Contains(resp.FulfillmentText, "no rooms are available") {
		t.Fatalf("unexpected fulfillment: %q", resp.FulfillmentText)
	}
}

func TestWebhook_MissingAndMalformedParameters(t *testing.T) {
	search := app.NewSearchService(sunshineStore(), &fakeTagCache{}, settings())
	svc := app.NewWebhookService(search)
	ctx := context.Background()

	resp := svc.Handle(ctx, webhookRequest(map[string]any{
		"check_in_date":  "2025-12-01",
		"check_out_date": "2025-12-03",
		"guests":         float64(2),
	}))
	if !strings.Contains(resp.FulfillmentText, "property identifier") {
		t.Fatalf("unexpected fulfillment: %q", resp.FulfillmentText)
	}

	resp = svc.Handle(ctx, webhookRequest(map[string]any{
		"property_id":    "Sunshine",
		"check_in_date":  "first of december",
		"check_out_date": "2025-12-03",
		"guests":         float64(2),
	}))
	if !strings.Contains(resp.FulfillmentText, "dates") {
		t.Fatalf("unexpected fulfillment: %q", resp.FulfillmentText)
	}
}
