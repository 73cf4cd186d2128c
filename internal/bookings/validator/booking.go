package validator

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"villagestay/pkg/logger"
	"villagestay/pkg/model"
	"villagestay/pkg/validation"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the calendar date format accepted besides RFC 3339.
const DateLayout = "2006-01-02"

// CreateInput is the booking request body. Numbers are kept raw so that
// numeric strings such as "7500" are accepted as well as JSON numbers.
type CreateInput struct {
	Listing     string          `json:"listing"`
	CheckIn     string          `json:"checkIn"`
	CheckOut    string          `json:"checkOut"`
	GuestsCount json.RawMessage `json:"guestsCount"`
	TotalPrice  json.RawMessage `json:"totalPrice"`
}

// UpdateInput holds the editable booking fields. Absent fields are left unchanged.
type UpdateInput struct {
	CheckIn     *string         `json:"checkIn,omitempty"`
	CheckOut    *string         `json:"checkOut,omitempty"`
	GuestsCount json.RawMessage `json:"guestsCount,omitempty"`
	TotalPrice  json.RawMessage `json:"totalPrice,omitempty"`
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validation.New(),
		logger:   log,
	}
}

// ParseCreate converts the request into a booking draft. Every rejected field
// is reported, not only the first.
func (v *BookingValidator) ParseCreate(in *CreateInput) (*model.Booking, error) {
	var errs validation.Errors
	booking := &model.Booking{}

	listing := strings.TrimSpace(in.Listing)
	switch {
	case listing == "":
		errs = errs.Add("listing", "listing is required")
	case !primitive.IsValidObjectID(listing):
		errs = errs.Add("listing", "listing must be a valid id")
	default:
		booking.Listing = listing
	}

	checkIn, ok := parseDate(in.CheckIn)
	if !ok {
		errs = errs.Add("checkIn", "checkIn must be a valid date")
	}
	checkOut, ok2 := parseDate(in.CheckOut)
	if !ok2 {
		errs = errs.Add("checkOut", "checkOut must be a valid date")
	}
	if ok && ok2 && !checkOut.After(checkIn) {
		errs = errs.Add("checkOut", "checkOut must be after checkIn")
	}
	booking.CheckIn, booking.CheckOut = checkIn, checkOut

	if guests, ok := parseInt(in.GuestsCount); !ok {
		errs = errs.Add("guestsCount", "guestsCount must be a whole number")
	} else if guests < 1 {
		errs = errs.Add("guestsCount", "guestsCount must be at least 1")
	} else {
		booking.GuestsCount = guests
	}

	if price, ok := parseNumber(in.TotalPrice); !ok || price < 0 {
		errs = errs.Add("totalPrice", "totalPrice must be a non-negative number")
	} else {
		booking.TotalPrice = price
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return booking, nil
}

// ParseUpdate converts a partial update. Cross field checks run later on the
// merged booking through Validate.
func (v *BookingValidator) ParseUpdate(in *UpdateInput) (*model.BookingUpdate, error) {
	var errs validation.Errors
	update := &model.BookingUpdate{}

	if in.CheckIn != nil {
		if t, ok := parseDate(*in.CheckIn); ok {
			update.CheckIn = &t
		} else {
			errs = errs.Add("checkIn", "checkIn must be a valid date")
		}
	}
	if in.CheckOut != nil {
		if t, ok := parseDate(*in.CheckOut); ok {
			update.CheckOut = &t
		} else {
			errs = errs.Add("checkOut", "checkOut must be a valid date")
		}
	}
	if present(in.GuestsCount) {
		if n, ok := parseInt(in.GuestsCount); ok {
			update.GuestsCount = &n
		} else {
			errs = errs.Add("guestsCount", "guestsCount must be a whole number")
		}
	}
	if present(in.TotalPrice) {
		if f, ok := parseNumber(in.TotalPrice); ok {
			update.TotalPrice = &f
		} else {
			errs = errs.Add("totalPrice", "totalPrice must be a number")
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if err := validation.Struct(v.validate, update); err != nil {
		return nil, err
	}
	return update, nil
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	return validation.Struct(v.validate, booking)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// parseNumber accepts a JSON number or a string holding one.
func parseNumber(raw json.RawMessage) (float64, bool) {
	if !present(raw) {
		return 0, false
	}

	s := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(unquoted)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseInt(raw json.RawMessage) (int, bool) {
	f, ok := parseNumber(raw)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
