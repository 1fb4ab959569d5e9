package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"stayfinder/internal/domain"
)

// WebhookService adapts conversational-agent webhook calls onto the resolver.
// Agent parameters arrive loosely typed (scalars or one-element arrays of
// strings/numbers); the service normalizes them into SearchCriteria and maps
// every outcome to a short fulfillment text, never an error; the agent has
// no use for an HTTP failure.
type WebhookService struct {
	search *SearchService
}

func NewWebhookService(search *SearchService) *WebhookService {
	return &WebhookService{search: search}
}

type WebhookRequest struct {
	QueryResult struct {
		QueryText  string         `json:"queryText"`
		Parameters map[string]any `json:"parameters"`
	} `json:"queryResult"`
}

type WebhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
}

func (s *WebhookService) Handle(ctx context.Context, req WebhookRequest) WebhookResponse {
	criteria, err := criteriaFromParameters(req.QueryResult.Parameters)
	if err != nil {
		return WebhookResponse{FulfillmentText: err.Error()}
	}

	res, err := s.search.Resolve(ctx, criteria)
	switch {
	case err == nil:
		return WebhookResponse{FulfillmentText: fulfillmentText(res, criteria)}
	case errors.Is(err, domain.ErrPropertyNotFound):
		return WebhookResponse{FulfillmentText: "Sorry, I couldn't find any information for the property you mentioned."}
	case errors.Is(err, domain.ErrInvalidDateRange):
		return WebhookResponse{FulfillmentText: "It seems there's an issue with the dates or other search criteria. " + err.Error()}
	case errors.Is(err, domain.ErrConfiguration):
		return WebhookResponse{FulfillmentText: "I'm facing some technical difficulties with my configuration. Please try again later."}
	default:
		log.Error().Err(err).Str("query", req.QueryResult.QueryText).Msg("agent webhook: unhandled resolution error")
		return WebhookResponse{FulfillmentText: "I encountered an unexpected problem. Please try again in a moment."}
	}
}

func criteriaFromParameters(params map[string]any) (domain.SearchCriteria, error) {
	propertyID := strings.TrimSpace(scalarString(params["property_id"]))
	if propertyID == "" {
		return domain.SearchCriteria{}, errors.New("The property identifier seems to be missing or empty. Could you please provide it?")
	}

	checkIn, okIn := parseAgentDate(scalarString(params["check_in_date"]))
	checkOut, okOut := parseAgentDate(scalarString(params["check_out_date"]))
	if !okIn || !okOut {
		return domain.SearchCriteria{}, errors.New("I had trouble understanding some details, like the dates provided. Please try phrasing them clearly.")
	}

	guests, ok := scalarInt(params["guests"])
	if !ok || guests < 1 {
		return domain.SearchCriteria{}, errors.New("Some required details are missing or invalid.")
	}

	return domain.SearchCriteria{
		PropertyID: propertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     guests,
	}, nil
}

// scalarString unwraps "v" or ["v", ...] into "v".
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		if len(x) > 0 {
			return scalarString(x[0])
		}
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", x), ".0")
	}
	return ""
}

func scalarInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(x), "%d", &n); err == nil {
			return n, true
		}
	case []any:
		if len(x) > 0 {
			return scalarInt(x[0])
		}
	}
	return 0, false
}

// parseAgentDate accepts the date shapes Dialogflow sends: plain YYYY-MM-DD or
// an RFC 3339 timestamp; only the calendar day is kept.
func parseAgentDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func fulfillmentText(res domain.AvailabilityResult, c domain.SearchCriteria) string {
	in := c.CheckIn.Format("2006-01-02")
	out := c.CheckOut.Format("2006-01-02")
	if len(res.Rooms) == 0 {
		return fmt.Sprintf("Sorry, no rooms are available for property %s from %s to %s for %d guests at this time.",
			c.PropertyID, in, out, c.Guests)
	}

	minPrice := res.Rooms[0].TotalPrice
	for _, r := range res.Rooms[1:] {
		if r.TotalPrice.LessThan(minPrice) {
			minPrice = r.TotalPrice
		}
	}
	return fmt.Sprintf("Yes! We have %d room(s) available for property %s from %s to %s for %d guests. Prices start from $%s. Want to reserve now?",
		len(res.Rooms), c.PropertyID, in, out, c.Guests, minPrice.StringFixed(2))
}
