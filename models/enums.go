package models

import (
	"errors"
	"strconv"
)

type DecimalPlaces string

const (
	DecimalPlacesZero  DecimalPlaces = "0"
	DecimalPlacesTwo   DecimalPlaces = "2"
	DecimalPlacesThree DecimalPlaces = "3"
)

func (p DecimalPlaces) Int32() int32 {
	n, err := strconv.Atoi(string(p))
	if err != nil {
		return 2
	}
	return int32(n)
}

func (p DecimalPlaces) IsValid() bool {
	switch p {
	case DecimalPlacesZero, DecimalPlacesTwo, DecimalPlacesThree:
		return true
	}
	return false
}

// MoveType is the accounting document type of an invoice.
type MoveType string

const (
	MoveTypeOutInvoice MoveType = "out_invoice"
	MoveTypeOutRefund  MoveType = "out_refund"
	MoveTypeInInvoice  MoveType = "in_invoice"
	MoveTypeInRefund   MoveType = "in_refund"
	MoveTypeEntry      MoveType = "entry"
)

type MoveState string

const (
	MoveStateDraft  MoveState = "draft"
	MoveStatePosted MoveState = "posted"
	MoveStateCancel MoveState = "cancel"
)

type PaymentState string

const (
	PaymentStateNotPaid   PaymentState = "not_paid"
	PaymentStatePartial   PaymentState = "partial"
	PaymentStatePaid      PaymentState = "paid"
	PaymentStateReversed  PaymentState = "reversed"
	PaymentStateInPayment PaymentState = "in_payment"
)

// AccountType classifies ledger accounts; sales reports read the income types.
type AccountType string

const (
	AccountTypeIncome           AccountType = "income"
	AccountTypeIncomeOther      AccountType = "income_other"
	AccountTypeAssetReceivable  AccountType = "asset_receivable"
	AccountTypeLiabilityPayable AccountType = "liability_payable"
	AccountTypeExpense          AccountType = "expense"
)

func (t *MoveType) Validate() error {
	switch *t {
	case MoveTypeOutInvoice, MoveTypeOutRefund, MoveTypeInInvoice, MoveTypeInRefund, MoveTypeEntry:
		return nil
	}
	return errors.New("invalid move type")
}
