package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	INR Currency = "INR"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

const (
	Monthly   BillingCycle = "Monthly"
	Quarterly BillingCycle = "Quarterly"
	Yearly    BillingCycle = "Yearly"
	OneTime   BillingCycle = "OneTime"
)

const (
	Streaming Category = "OTT/Streaming"
	SaaS      Category = "Software/SaaS"
	Health    Category = "Fitness/Health"
	Food      Category = "Food Delivery"
	Ecommerce Category = "E-commerce"
	Other     Category = "Other"
)

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type (
	Currency     string
	BillingCycle string
	Category     string
	Status       string

	// Date is a calendar date at day granularity; time-of-day is discarded
	// on construction and in comparisons.
	Date struct {
		time.Time
	}

	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"passwordHash"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Subscription struct {
		ID           string          `json:"id"`
		UserID       string          `json:"userId"`
		Name         string          `json:"name"`
		Cost         decimal.Decimal `json:"cost"`
		Currency     Currency        `json:"currency"`
		CostInINR    decimal.Decimal `json:"costInINR"`
		BillingCycle BillingCycle    `json:"billingCycle"`
		RenewalDate  *Date           `json:"renewalDate"`
		Category     Category        `json:"category"`
		Status       Status          `json:"status"`
		Notes        string          `json:"notes"`
		CreatedAt    time.Time       `json:"createdAt"`
	}
)

var (
	ErrEmptyName           = errors.New("empty subscription name")
	ErrNegativeCost        = errors.New("cost must not be negative")
	ErrUnknownCurrency     = errors.New("unknown currency")
	ErrInvalidCycle        = errors.New("invalid billing cycle")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrRenewalDateRequired = errors.New("renewal date is required for recurring cycles")
	ErrRenewalDateOneTime  = errors.New("renewal date must be empty for one-time billing")
)

func (c Currency) Valid() bool {
	switch c {
	case INR, USD, EUR, GBP:
		return true
	}
	return false
}

func (b BillingCycle) Valid() bool {
	switch b {
	case Monthly, Quarterly, Yearly, OneTime:
		return true
	}
	return false
}

// Recurring reports whether the cycle produces repeated charges.
func (b BillingCycle) Recurring() bool {
	return b.Valid() && b != OneTime
}

func (c Category) Valid() bool {
	switch c {
	case Streaming, SaaS, Health, Food, Ecommerce, Other:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// NewDate creates a Date pinned to UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string. Longer timestamps are accepted by
// taking their date part, matching what older clients persisted.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// DaysUntil returns the whole number of days from today's midnight to d's
// midnight. Negative when d is in the past.
func (d Date) DaysUntil(today Date) int {
	return int(d.Time.Sub(today.Time).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("empty email")
	}
	if u.PasswordHash == "" {
		return errors.New("empty password hash")
	}
	return nil
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.Cost.IsNegative() {
		return ErrNegativeCost
	}
	if !s.Currency.Valid() {
		return ErrUnknownCurrency
	}
	if !s.BillingCycle.Valid() {
		return ErrInvalidCycle
	}
	if !s.Category.Valid() {
		return ErrInvalidCategory
	}
	if !s.Status.Valid() {
		return ErrInvalidStatus
	}
	if s.BillingCycle == OneTime {
		if s.RenewalDate != nil {
			return ErrRenewalDateOneTime
		}
		return nil
	}
	if s.RenewalDate == nil || s.RenewalDate.IsZero() {
		return ErrRenewalDateRequired
	}
	return nil
}
