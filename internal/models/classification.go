package models

// DocumentClassification is the kind of procurement document a result is.
type DocumentClassification string

const (
	ClassOrderForm         DocumentClassification = "order_form"
	ClassContractAgreement DocumentClassification = "contract_agreement"
	ClassPricingDocument   DocumentClassification = "pricing_document"
	ClassStaffReportMemo   DocumentClassification = "staff_report_memo"
	ClassRFPProposal       DocumentClassification = "rfp_proposal"
	ClassOtherGovDocument  DocumentClassification = "other_gov_document"
)

// Classifications lists every value in cue priority order.
var Classifications = []DocumentClassification{
	ClassOrderForm,
	ClassContractAgreement,
	ClassPricingDocument,
	ClassStaffReportMemo,
	ClassRFPProposal,
	ClassOtherGovDocument,
}

// Label returns the human readable name.
func (c DocumentClassification) Label() string {
	switch c {
	case ClassOrderForm:
		return "Order Form"
	case ClassContractAgreement:
		return "Contract/Agreement"
	case ClassPricingDocument:
		return "Pricing Document"
	case ClassStaffReportMemo:
		return "Staff Report/Memo"
	case ClassRFPProposal:
		return "RFP/Proposal"
	case ClassOtherGovDocument, "":
		return "Other Gov Document"
	default:
		return string(c)
	}
}

// PricingUnlikely reports whether documents of this kind rarely carry final pricing.
func (c DocumentClassification) PricingUnlikely() bool {
	return c == ClassRFPProposal || c == ClassStaffReportMemo
}
