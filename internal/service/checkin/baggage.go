package checkin

import (
	"fmt"

	"github.com/Domenick1991/wingquest/internal/domain"
)

type BaggageOption struct {
	ID          string       `json:"id"`
	Weight      string       `json:"weight"`
	Fee         domain.Money `json:"fee"`
	Description string       `json:"description"`
}

const DefaultBaggage = "none"

var baggageOptions = []BaggageOption{
	{ID: "none", Weight: "carry-on only", Fee: 0, Description: "Cabin bag up to 10kg"},
	{ID: "20kg", Weight: "20kg", Fee: 15000, Description: "Short trips"},
	{ID: "30kg", Weight: "30kg", Fee: 22000, Description: "Long trips"},
	{ID: "40kg", Weight: "40kg", Fee: 28000, Description: "Extra luggage"},
}

func BaggageOptions() []BaggageOption {
	out := make([]BaggageOption, len(baggageOptions))
	copy(out, baggageOptions)
	return out
}

func baggageOption(id string) (BaggageOption, error) {
	if id == "" {
		id = DefaultBaggage
	}
	for _, opt := range baggageOptions {
		if opt.ID == id {
			return opt, nil
		}
	}
	return BaggageOption{}, fmt.Errorf("%w: unknown baggage option %q", domain.ErrValidation, id)
}
