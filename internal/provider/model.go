package provider

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountTypeIndividual = "INDIVIDUAL"
	CardTypeVirtual       = "VIRTUAL"
	CardMemo              = "Solux Sandbox Card"
)

// Address is the account holder's residential address.
type Address struct {
	Address1   string `json:"address1" validate:"required"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" default:"USA" validate:"required"`
}

// Profile is the enrollment payload collected by the wizard.
type Profile struct {
	FirstName   string  `json:"first_name" validate:"required"`
	LastName    string  `json:"last_name" validate:"required"`
	Email       string  `json:"email" validate:"required,email"`
	DOB         string  `json:"dob" validate:"required,datetime=2006-01-02"`
	Address     Address `json:"address"`
	SSNLastFour string  `json:"ssn_last_four" validate:"required,len=4,numeric"`
}

type accountRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	DOB         string  `json:"dob"`
	Address     Address `json:"address"`
	SSNLastFour string  `json:"ssn_last_four"`
	Type        string  `json:"type"`
}

type cardRequest struct {
	AccountToken string `json:"account_token"`
	Type         string `json:"type"`
	Memo         string `json:"memo"`
}

type authorizeRequest struct {
	CardToken  string `json:"card_token"`
	Amount     int64  `json:"amount"`
	Descriptor string `json:"descriptor"`
}

// Account is an enrolled account holder.
type Account struct {
	Token              string    `json:"token"`
	State              string    `json:"state"`
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	VerificationStatus string    `json:"verification_status"`
}

// Card is an issued card.
type Card struct {
	Token    string `json:"token"`
	State    string `json:"state"`
	Type     string `json:"type"`
	LastFour string `json:"last_four"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
	Memo     string `json:"memo"`
}

// Merchant describes where a card was used.
type Merchant struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

// Authorization is the provider's answer to a simulated card swipe.
type Authorization struct {
	Token    string   `json:"token"`
	Status   string   `json:"status"`
	Amount   int64    `json:"amount"`
	Merchant Merchant `json:"merchant"`
}

// ErrAmountOverflow is returned when an amount has no int64 minor-unit form.
var ErrAmountOverflow = errors.New("amount exceeds minor unit range")

// MinorUnits converts a major-unit amount to cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	cents := amount.Shift(2).Round(0)
	if cents.GreaterThan(maxMinorUnits) || cents.LessThan(minMinorUnits) {
		return 0, ErrAmountOverflow
	}
	return cents.IntPart(), nil
}

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)
