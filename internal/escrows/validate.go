package escrows

import (
	"trustline-backend/internal/models"
	"trustline-backend/internal/pkg/validation"

	"github.com/shopspring/decimal"
)

// Input is the escrow create/update payload. Pointers distinguish absent
// fields from zero values so partial updates can be merged before validation.
type Input struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	ParticipantRole *string          `json:"participant_role"`
	Currency        *string          `json:"currency"`
	TransactionType *string          `json:"transaction_type"`
	PropertyType    *string          `json:"property_type"`
	PropertyValue   *decimal.Decimal `json:"property_value"`
	ClosingDate     *string          `json:"closing_date"`
	PropertyAddress *string          `json:"property_address"`

	CommissionPercentage  *decimal.Decimal `json:"commission_percentage"`
	CommissionPayer       *string          `json:"commission_payer"`
	CommissionPaymentDate *string          `json:"commission_payment_date"`
	BrokerAName           *string          `json:"broker_a_name"`
	BrokerAPercentage     *decimal.Decimal `json:"broker_a_percentage"`
	BrokerBName           *string          `json:"broker_b_name"`
	BrokerBPercentage     *decimal.Decimal `json:"broker_b_percentage"`

	DueDiligenceScope    *string          `json:"due_diligence_scope"`
	DueDiligenceDays     *int             `json:"due_diligence_days"`
	DueDiligenceDeadline *string          `json:"due_diligence_deadline"`
	DueDiligenceFee      *decimal.Decimal `json:"due_diligence_fee"`

	HiddenDefectsDescription *string          `json:"hidden_defects_description"`
	RetentionAmount          *decimal.Decimal `json:"retention_amount"`
	ResolutionDays           *int             `json:"resolution_days"`
	ResponsibleParty         *string          `json:"responsible_party"`

	AgreementUpload *string `json:"agreement_upload"`
	Status          *string `json:"status"`
}

// apply merges the non-nil input fields onto the escrow.
func apply(e *models.Escrow, in Input) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&e.Name, in.Name)
	setStr(&e.Description, in.Description)
	setStr(&e.ParticipantRole, in.ParticipantRole)
	setStr(&e.Currency, in.Currency)
	setStr(&e.TransactionType, in.TransactionType)
	setStr(&e.PropertyType, in.PropertyType)
	setStr(&e.ClosingDate, in.ClosingDate)
	setStr(&e.PropertyAddress, in.PropertyAddress)
	setStr(&e.Status, in.Status)

	if in.PropertyValue != nil {
		e.PropertyValue = in.PropertyValue
	}
	if in.CommissionPercentage != nil {
		e.CommissionPercentage = in.CommissionPercentage
	}
	if in.CommissionPayer != nil {
		e.CommissionPayer = in.CommissionPayer
	}
	if in.CommissionPaymentDate != nil {
		e.CommissionPaymentDate = in.CommissionPaymentDate
	}
	if in.BrokerAName != nil {
		e.BrokerAName = in.BrokerAName
	}
	if in.BrokerAPercentage != nil {
		e.BrokerAPercentage = in.BrokerAPercentage
	}
	if in.BrokerBName != nil {
		e.BrokerBName = in.BrokerBName
	}
	if in.BrokerBPercentage != nil {
		e.BrokerBPercentage = in.BrokerBPercentage
	}
	if in.DueDiligenceScope != nil {
		e.DueDiligenceScope = in.DueDiligenceScope
	}
	if in.DueDiligenceDays != nil {
		e.DueDiligenceDays = in.DueDiligenceDays
	}
	if in.DueDiligenceDeadline != nil {
		e.DueDiligenceDeadline = in.DueDiligenceDeadline
	}
	if in.DueDiligenceFee != nil {
		e.DueDiligenceFee = in.DueDiligenceFee
	}
	if in.HiddenDefectsDescription != nil {
		e.HiddenDefectsDescription = in.HiddenDefectsDescription
	}
	if in.RetentionAmount != nil {
		e.RetentionAmount = in.RetentionAmount
	}
	if in.ResolutionDays != nil {
		e.ResolutionDays = in.ResolutionDays
	}
	if in.ResponsibleParty != nil {
		e.ResponsibleParty = in.ResponsibleParty
	}
	if in.AgreementUpload != nil {
		e.AgreementUpload = in.AgreementUpload
	}
}

const requiredMsg = "This field is required."

// requiredByType maps each transaction type to the fields it makes mandatory
// on top of the base set.
var requiredByType = map[string][]string{
	models.TransactionCommission: {
		"commission_percentage",
		"commission_payer",
		"commission_payment_date",
		"broker_a_name",
		"broker_a_percentage",
		"broker_b_name",
		"broker_b_percentage",
	},
	models.TransactionDueDiligence: {
		"due_diligence_scope",
		"due_diligence_days",
		"due_diligence_deadline",
		"due_diligence_fee",
	},
	models.TransactionHiddenDefects: {
		"hidden_defects_description",
		"retention_amount",
		"resolution_days",
		"responsible_party",
	},
}

var baseRequired = []string{
	"name",
	"participant_role",
	"currency",
	"transaction_type",
	"property_type",
	"property_value",
	"closing_date",
	"property_address",
}

// fieldPresent reports whether the named field carries a value on the escrow.
func fieldPresent(e *models.Escrow, field string) bool {
	switch field {
	case "name":
		return e.Name != ""
	case "participant_role":
		return e.ParticipantRole != ""
	case "currency":
		return e.Currency != ""
	case "transaction_type":
		return e.TransactionType != ""
	case "property_type":
		return e.PropertyType != ""
	case "property_value":
		return e.PropertyValue != nil
	case "closing_date":
		return e.ClosingDate != ""
	case "property_address":
		return e.PropertyAddress != ""
	case "commission_percentage":
		return e.CommissionPercentage != nil
	case "commission_payer":
		return e.CommissionPayer != nil && *e.CommissionPayer != ""
	case "commission_payment_date":
		return e.CommissionPaymentDate != nil && *e.CommissionPaymentDate != ""
	case "broker_a_name":
		return e.BrokerAName != nil && *e.BrokerAName != ""
	case "broker_a_percentage":
		return e.BrokerAPercentage != nil
	case "broker_b_name":
		return e.BrokerBName != nil && *e.BrokerBName != ""
	case "broker_b_percentage":
		return e.BrokerBPercentage != nil
	case "due_diligence_scope":
		return e.DueDiligenceScope != nil && *e.DueDiligenceScope != ""
	case "due_diligence_days":
		return e.DueDiligenceDays != nil
	case "due_diligence_deadline":
		return e.DueDiligenceDeadline != nil && *e.DueDiligenceDeadline != ""
	case "due_diligence_fee":
		return e.DueDiligenceFee != nil
	case "hidden_defects_description":
		return e.HiddenDefectsDescription != nil && *e.HiddenDefectsDescription != ""
	case "retention_amount":
		return e.RetentionAmount != nil
	case "resolution_days":
		return e.ResolutionDays != nil
	case "responsible_party":
		return e.ResponsibleParty != nil && *e.ResponsibleParty != ""
	}
	return false
}

func validSide(side string) bool {
	return side == models.SideBuyer || side == models.SideSeller || side == models.SideBoth
}

func validCurrency(currency string) bool {
	return currency == models.CurrencyUSD || currency == models.CurrencyMXN
}

func validPropertyType(pt string) bool {
	switch pt {
	case models.PropertyHouse, models.PropertyApartment, models.PropertyLand, models.PropertyCommercial, models.PropertyOffice:
		return true
	}
	return false
}

func validTransactionType(tt string) bool {
	switch tt {
	case models.TransactionCommission, models.TransactionDueDiligence, models.TransactionHiddenDefects:
		return true
	}
	return false
}

func validStatus(status string) bool {
	switch status {
	case models.EscrowStatusDraft, models.EscrowStatusActive, models.EscrowStatusLocked:
		return true
	}
	return false
}

// validate checks the merged escrow state and returns a *ValidationError
// collecting every violation, or nil.
func validate(e *models.Escrow) error {
	errs := map[string][]string{}
	addErr := func(field, msg string) {
		errs[field] = append(errs[field], msg)
	}

	for _, field := range baseRequired {
		if !fieldPresent(e, field) {
			addErr(field, requiredMsg)
		}
	}
	for _, field := range requiredByType[e.TransactionType] {
		if !fieldPresent(e, field) {
			addErr(field, requiredMsg)
		}
	}

	if e.ParticipantRole != "" && !models.ValidPartyRole(e.ParticipantRole) {
		addErr("participant_role", "Invalid role")
	}
	if e.Currency != "" && !validCurrency(e.Currency) {
		addErr("currency", "Unsupported currency")
	}
	if e.TransactionType != "" && !validTransactionType(e.TransactionType) {
		addErr("transaction_type", "Invalid transaction type")
	}
	if e.PropertyType != "" && !validPropertyType(e.PropertyType) {
		addErr("property_type", "Invalid property type")
	}
	if e.Status != "" && !validStatus(e.Status) {
		addErr("status", "Invalid escrow status")
	}
	if e.PropertyValue != nil && e.PropertyValue.IsNegative() {
		addErr("property_value", "Property value cannot be negative")
	}
	if e.ClosingDate != "" && !validation.IsValidDate(e.ClosingDate) {
		addErr("closing_date", "Date must be in YYYY-MM-DD format")
	}
	if e.CommissionPaymentDate != nil && *e.CommissionPaymentDate != "" && !validation.IsValidDate(*e.CommissionPaymentDate) {
		addErr("commission_payment_date", "Date must be in YYYY-MM-DD format")
	}
	if e.DueDiligenceDeadline != nil && *e.DueDiligenceDeadline != "" && !validation.IsValidDate(*e.DueDiligenceDeadline) {
		addErr("due_diligence_deadline", "Date must be in YYYY-MM-DD format")
	}
	if e.CommissionPercentage != nil {
		pct := *e.CommissionPercentage
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			addErr("commission_percentage", "Commission percentage must be between 0 and 100")
		}
	}
	if e.CommissionPayer != nil && *e.CommissionPayer != "" && !validSide(*e.CommissionPayer) {
		addErr("commission_payer", "Invalid commission payer")
	}
	if e.ResponsibleParty != nil && *e.ResponsibleParty != "" && !validSide(*e.ResponsibleParty) {
		addErr("responsible_party", "Invalid responsible party")
	}

	if e.TransactionType == models.TransactionCommission && e.BrokerAPercentage != nil && e.BrokerBPercentage != nil {
		if !e.BrokerAPercentage.Add(*e.BrokerBPercentage).Equal(decimal.NewFromInt(100)) {
			addErr("broker_b_percentage", "Broker percentages must total 100%.")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
